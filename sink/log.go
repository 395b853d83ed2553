package sink

import (
	"context"
	"log/slog"

	"github.com/petal-labs/warehouse/core"
)

// Log writes one structured line per record.
type Log struct {
	logger *slog.Logger
	level  slog.Level
	bodies bool
}

// LogOption configures a Log sink.
type LogOption func(*Log)

// WithLevel sets the level successful and streaming records are logged at.
// Failed calls are always logged at warn or above.
func WithLevel(l slog.Level) LogOption {
	return func(s *Log) { s.level = l }
}

// WithBodies includes the request and response in each line.
func WithBodies(on bool) LogOption {
	return func(s *Log) { s.bodies = on }
}

// NewLog creates a Log sink. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger, opts ...LogOption) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Log{logger: logger, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit logs r.
func (s *Log) Submit(r core.Record) {
	level := s.level
	if r.Failed() && level < slog.LevelWarn {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("record_id", r.ID),
		slog.String("sdk_method", r.SDKMethod),
		slog.String("outcome", string(r.Outcome)),
		slog.Float64("latency_s", r.LatencySeconds()),
	}
	switch {
	case r.Failed():
		attrs = append(attrs, slog.String("error", r.Error))
	case r.RequestID != nil:
		attrs = append(attrs, slog.String("request_id", *r.RequestID))
	}
	if s.bodies {
		attrs = append(attrs, slog.Any("request", r.Request))
		if r.Outcome == core.OutcomeSuccess {
			attrs = append(attrs, slog.Any("response", r.Response))
		}
	}

	s.logger.LogAttrs(context.Background(), level, "llm call", attrs...)
}

var _ core.Sink = (*Log)(nil)
