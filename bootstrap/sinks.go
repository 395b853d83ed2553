package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/petal-labs/warehouse/config"
	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/sink"
)

// Sinks is the fan-out of sinks built from configuration.
type Sinks struct {
	sinks   core.MultiSink
	closers []func(context.Context) error
}

// Submit forwards r to every sink.
func (s *Sinks) Submit(r core.Record) {
	s.sinks.Submit(r)
}

// Add appends sinks to the fan-out. It must be called before records flow.
func (s *Sinks) Add(extra ...core.Sink) {
	s.sinks = append(s.sinks, extra...)
}

// Len returns the number of sinks.
func (s *Sinks) Len() int {
	return len(s.sinks)
}

// Close flushes and closes every sink that buffers.
func (s *Sinks) Close(ctx context.Context) error {
	var errs []error
	for _, c := range s.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildSinks creates the sinks selected by cfg.
func BuildSinks(_ context.Context, cfg *config.Config, logger *slog.Logger) (*Sinks, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Sinks{}

	switch cfg.Sink.Kind {
	case config.SinkHTTP:
		h, err := sink.NewHTTP(cfg.Sink.URL,
			sink.WithAPIKey(cfg.Sink.APIKey),
			sink.WithBatchSize(cfg.Sink.BatchSize),
			sink.WithFlushInterval(cfg.Sink.FlushInterval),
			sink.WithQueueSize(cfg.Sink.QueueSize),
			sink.WithHTTP2(cfg.Sink.HTTP2),
			sink.WithHTTPLogger(logger))
		if err != nil {
			return nil, err
		}
		s.sinks = append(s.sinks, h)
		s.closers = append(s.closers, h.Close)
	case config.SinkLog:
		s.sinks = append(s.sinks, sink.NewLog(logger))
	}

	if cfg.Sink.Metrics {
		s.sinks = append(s.sinks, sink.NewMetrics(nil))
	}
	if cfg.Sink.Tracing {
		s.sinks = append(s.sinks, sink.NewTracing(nil))
	}
	return s, nil
}
