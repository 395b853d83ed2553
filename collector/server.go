// Package collector is a reference collector for warehouse records.
//
// It accepts batches posted by the HTTP sink, stores them in BadgerDB and
// serves them back for inspection:
//
//	POST /v1/records        ingest a batch, an array or a single record
//	GET  /v1/records        list records (sdk_method, outcome, since, limit)
//	GET  /v1/records/:id    fetch one record
//	GET  /v1/stats          per-method counts and latency
//	GET  /healthz           liveness
//	GET  /metrics           Prometheus metrics
package collector

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/sink"
)

// MaxBodyBytes caps the size of an ingest request.
const MaxBodyBytes = 16 << 20

// Server is the collector HTTP API.
type Server struct {
	store    *Store
	logger   *slog.Logger
	apiKey   core.Secret
	registry *prometheus.Registry
	calls    *sink.Metrics
	ingested *prometheus.CounterVec
	router   *gin.Engine
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the request logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServerAPIKey requires a bearer token on the /v1 routes.
func WithServerAPIKey(key core.Secret) ServerOption {
	return func(s *Server) { s.apiKey = key }
}

// NewServer creates a collector API over store.
func NewServer(store *Store, opts ...ServerOption) *Server {
	s := &Server{
		store:    store,
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.calls = sink.NewMetrics(s.registry)
	s.ingested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llm_warehouse",
		Subsystem: "collector",
		Name:      "ingested_records_total",
		Help:      "Records accepted or rejected by the collector.",
	}, []string{"result"})
	s.registry.MustRegister(s.ingested)

	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1", s.authenticate())
	v1.POST("/records", s.handleIngest)
	v1.GET("/records", s.handleList)
	v1.GET("/records/:id", s.handleGet)
	v1.GET("/stats", s.handleStats)
	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("collector request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey.IsEmpty() {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey.Expose())) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing bearer token"})
			return
		}
		c.Next()
	}
}

// decodeRecords accepts a sink.Batch, a JSON array of records or one record.
func decodeRecords(body []byte) ([]core.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	switch body[0] {
	case '[':
		var recs []core.Record
		err := json.Unmarshal(body, &recs)
		return recs, err
	case '{':
		var probe struct {
			Records json.RawMessage `json:"records"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, err
		}
		if probe.Records != nil {
			var b sink.Batch
			err := json.Unmarshal(body, &b)
			return b.Records, err
		}
		var r core.Record
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, err
		}
		return []core.Record{r}, nil
	}
	return nil, errors.New("body must be a JSON object or array")
}

func (s *Server) handleIngest(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body"})
		return
	}
	if len(body) > MaxBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
		return
	}

	recs, err := decodeRecords(body)
	if err != nil {
		s.ingested.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid records: " + err.Error()})
		return
	}
	for i, r := range recs {
		if r.SDKMethod == "" {
			s.ingested.WithLabelValues("rejected").Add(float64(len(recs)))
			c.JSON(http.StatusBadRequest, gin.H{"error": "record " + strconv.Itoa(i) + " has no sdk_method"})
			return
		}
	}

	if err := s.store.Put(c.Request.Context(), recs...); err != nil {
		s.logger.Error("store records", "error", err, "records", len(recs))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store records"})
		return
	}
	for _, r := range recs {
		s.calls.Submit(r)
	}
	s.ingested.WithLabelValues("accepted").Add(float64(len(recs)))
	c.JSON(http.StatusAccepted, gin.H{"accepted": len(recs)})
}

func (s *Server) handleList(c *gin.Context) {
	q := Query{
		SDKMethod: c.Query("sdk_method"),
		Outcome:   core.Outcome(c.Query("outcome")),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		q.Limit = n
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC 3339"})
			return
		}
		q.Since = t
	}

	recs, err := s.store.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "count": len(recs)})
}

func (s *Server) handleGet(c *gin.Context) {
	rec, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleStats(c *gin.Context) {
	st, err := s.store.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}
