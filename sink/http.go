package sink

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/petal-labs/warehouse/core"
)

// Batch is the body of one delivery to a collector.
type Batch struct {
	ID      string        `json:"batch_id"`
	Records []core.Record `json:"records"`
}

// HTTPConfig configures an HTTP sink.
type HTTPConfig struct {
	// Endpoint is the collector URL records are posted to (required).
	Endpoint string

	// APIKey is sent as a bearer token when set.
	APIKey core.Secret

	// BatchSize is the maximum number of records per request. Defaults to 50.
	BatchSize int

	// FlushInterval bounds how long a record waits in a partial batch. Defaults to 1s.
	FlushInterval time.Duration

	// QueueSize is the number of records buffered before Submit starts dropping. Defaults to 1024.
	QueueSize int

	// Timeout bounds each delivery attempt. Defaults to 10s.
	Timeout time.Duration

	// Retry decides whether failed deliveries are retried. Defaults to
	// core.DefaultRetryPolicy(); nil disables retries.
	Retry core.RetryPolicy

	// HTTP2 delivers over an HTTP/2 transport: TLS for https endpoints,
	// prior-knowledge h2c for http endpoints.
	HTTP2 bool

	// Client overrides the HTTP client. HTTP2 is ignored when set.
	Client *http.Client

	// Logger receives delivery failures. Defaults to slog.Default().
	Logger *slog.Logger

	// Breaker sheds batches while the collector keeps failing.
	// Defaults to DefaultBreakerConfig(); a zero FailureThreshold disables it.
	Breaker BreakerConfig
}

// HTTPOption configures an HTTP sink.
type HTTPOption func(*HTTPConfig)

// WithAPIKey sets the collector bearer token.
func WithAPIKey(key core.Secret) HTTPOption {
	return func(c *HTTPConfig) { c.APIKey = key }
}

// WithBatchSize sets the maximum records per request.
func WithBatchSize(n int) HTTPOption {
	return func(c *HTTPConfig) { c.BatchSize = n }
}

// WithFlushInterval sets the partial batch timeout.
func WithFlushInterval(d time.Duration) HTTPOption {
	return func(c *HTTPConfig) { c.FlushInterval = d }
}

// WithQueueSize sets the buffer size.
func WithQueueSize(n int) HTTPOption {
	return func(c *HTTPConfig) { c.QueueSize = n }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPConfig) { c.Timeout = d }
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p core.RetryPolicy) HTTPOption {
	return func(c *HTTPConfig) { c.Retry = p }
}

// WithHTTP2 switches delivery to an HTTP/2 transport.
func WithHTTP2(on bool) HTTPOption {
	return func(c *HTTPConfig) { c.HTTP2 = on }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPConfig) { c.Client = client }
}

// WithHTTPLogger sets the logger for delivery failures.
func WithHTTPLogger(l *slog.Logger) HTTPOption {
	return func(c *HTTPConfig) { c.Logger = l }
}

// WithBreaker sets the delivery circuit breaker.
func WithBreaker(b BreakerConfig) HTTPOption {
	return func(c *HTTPConfig) { c.Breaker = b }
}

// HTTPStats are delivery counters of an HTTP sink.
type HTTPStats struct {
	Submitted int64 // Records accepted into the queue
	Dropped   int64 // Records rejected because the queue was full or the sink closed
	Delivered int64 // Records acknowledged by the collector
	Failed    int64 // Records given up on after retries
	Batches   int64 // Successful requests
	Shed      int64 // Records discarded without an attempt while the breaker was open
	Circuit   CircuitState
}

// HTTP delivers records to a collector in batches from a background goroutine.
// Submit never blocks: when the queue is full the record is dropped.
type HTTP struct {
	cfg     HTTPConfig
	client  *http.Client
	breaker *breaker

	mu     sync.RWMutex
	closed bool
	queue  chan core.Record
	flush  chan chan struct{}
	done   chan struct{}

	submitted atomic.Int64
	dropped   atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	batches   atomic.Int64
	shed      atomic.Int64
}

// NewHTTP creates an HTTP sink and starts its delivery loop.
func NewHTTP(endpoint string, opts ...HTTPOption) (*HTTP, error) {
	cfg := HTTPConfig{
		Endpoint:      endpoint,
		BatchSize:     50,
		FlushInterval: time.Second,
		QueueSize:     1024,
		Timeout:       10 * time.Second,
		Retry:         core.DefaultRetryPolicy(),
		Logger:        slog.Default(),
		Breaker:       DefaultBreakerConfig(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: http sink requires an endpoint", core.ErrInvalidConfig)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Retry == nil {
		cfg.Retry = core.NoRetry()
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
		if cfg.HTTP2 {
			t, err := http2Transport(cfg.Endpoint)
			if err != nil {
				return nil, err
			}
			client.Transport = t
		}
	}

	s := &HTTP{
		cfg:     cfg,
		client:  client,
		breaker: newBreaker(cfg.Breaker, time.Now),
		queue:   make(chan core.Record, cfg.QueueSize),
		flush:   make(chan chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// http2Transport returns an HTTP/2 transport for endpoint. Plain http
// endpoints are spoken to with h2c, without an upgrade round trip.
func http2Transport(endpoint string) (*http2.Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: http sink endpoint: %v", core.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" {
		return &http2.Transport{}, nil
	}
	return &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}, nil
}

// Submit queues r for delivery.
func (s *HTTP) Submit(r core.Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- r:
		s.submitted.Add(1)
	default:
		s.dropped.Add(1)
	}
}

// Flush delivers everything queued so far and waits for it.
func (s *HTTP) Flush(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return core.ErrSinkClosed
	}
	ack := make(chan struct{})
	select {
	case s.flush <- ack:
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records, delivers what is queued and waits for the
// delivery loop to finish or ctx to expire.
func (s *HTTP) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the delivery counters.
func (s *HTTP) Stats() HTTPStats {
	return HTTPStats{
		Submitted: s.submitted.Load(),
		Dropped:   s.dropped.Load(),
		Delivered: s.delivered.Load(),
		Failed:    s.failed.Load(),
		Batches:   s.batches.Load(),
		Shed:      s.shed.Load(),
		Circuit:   s.breaker.current(),
	}
}

func (s *HTTP) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]core.Record, 0, s.cfg.BatchSize)
	send := func() {
		if len(batch) == 0 {
			return
		}
		s.deliver(batch)
		batch = make([]core.Record, 0, s.cfg.BatchSize)
	}

	for {
		select {
		case r, ok := <-s.queue:
			if !ok {
				send()
				return
			}
			batch = append(batch, r)
			if len(batch) >= s.cfg.BatchSize {
				send()
			}
		case ack := <-s.flush:
			for drained := false; !drained; {
				select {
				case r, ok := <-s.queue:
					if !ok {
						drained = true
						break
					}
					batch = append(batch, r)
					if len(batch) >= s.cfg.BatchSize {
						send()
					}
				default:
					drained = true
				}
			}
			send()
			close(ack)
		case <-ticker.C:
			send()
		}
	}
}

// deliver posts one batch, retrying per the configured policy.
func (s *HTTP) deliver(records []core.Record) {
	if err := s.breaker.allow(); err != nil {
		s.shed.Add(int64(len(records)))
		return
	}

	b := Batch{ID: uuid.NewString(), Records: records}
	body, err := json.Marshal(b)
	if err != nil {
		s.failed.Add(int64(len(records)))
		s.cfg.Logger.Warn("warehouse: encode batch", "batch_id", b.ID, "error", err)
		return
	}

	for attempt := 0; ; attempt++ {
		err = s.post(b.ID, len(records), body)
		if err == nil {
			s.breaker.record(nil)
			s.delivered.Add(int64(len(records)))
			s.batches.Add(1)
			return
		}
		delay, ok := s.cfg.Retry.NextDelay(attempt, err)
		if !ok {
			break
		}
		time.Sleep(delay)
	}

	s.breaker.record(err)
	s.failed.Add(int64(len(records)))
	s.cfg.Logger.Warn("warehouse: deliver batch",
		"batch_id", b.ID,
		"records", len(records),
		"error", err)
}

func (s *HTTP) post(batchID string, n int, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &core.DeliveryError{Endpoint: s.cfg.Endpoint, Records: n, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Warehouse-Batch", batchID)
	if !s.cfg.APIKey.IsEmpty() {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey.Expose())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &core.DeliveryError{Endpoint: s.cfg.Endpoint, Records: n, Message: "send", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &core.DeliveryError{
		Endpoint: s.cfg.Endpoint,
		Status:   resp.StatusCode,
		Records:  n,
		Message:  string(bytes.TrimSpace(msg)),
	}
}

var _ core.Sink = (*HTTP)(nil)
