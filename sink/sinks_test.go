package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/petal-labs/warehouse/core"
)

func failedRecord(label string) core.Record {
	return core.Record{
		ID:        "rec-err",
		Time:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SDKMethod: label,
		Outcome:   core.OutcomeError,
		Error:     errors.New("rate limited").Error(),
		Latency:   time.Second,
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)), WithBodies(true))

	s.Submit(testRecord("openai.chat.completions.create"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "openai.chat.completions.create", line["sdk_method"])
	assert.Equal(t, "success", line["outcome"])
	assert.Equal(t, "req_1", line["request_id"])
	assert.InDelta(t, 0.25, line["latency_s"], 1e-9)
	assert.NotNil(t, line["response"])
}

func TestLogSinkFailuresWarn(t *testing.T) {
	var buf bytes.Buffer
	s := NewLog(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), WithLevel(slog.LevelDebug))

	s.Submit(failedRecord("anthropic.messages.create"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "rate limited", line["error"])
	assert.NotContains(t, line, "request")
}

func TestMetricsSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Submit(testRecord("openai.chat.completions.create"))
	m.Submit(testRecord("openai.chat.completions.create"))
	m.Submit(failedRecord("openai.chat.completions.create"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("openai.chat.completions.create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("openai.chat.completions.create", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestTracingSink(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	s := NewTracing(tp)
	ok := testRecord("openai.chat.completions.create")
	s.Submit(ok)
	s.Submit(failedRecord("anthropic.messages.create"))

	spans := rec.Ended()
	require.Len(t, spans, 2)

	first := spans[0]
	assert.Equal(t, "openai.chat.completions.create", first.Name())
	assert.True(t, ok.Time.Equal(first.StartTime()), "start = %v", first.StartTime())
	assert.True(t, ok.Time.Add(ok.Latency).Equal(first.EndTime()), "end = %v", first.EndTime())

	attrs := map[string]string{}
	for _, kv := range first.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "success", attrs["llm.outcome"])
	assert.Equal(t, "req_1", attrs["llm.request_id"])

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "rate limited", spans[1].Status().Description)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(2)
	_, ok := r.Last()
	assert.False(t, ok)

	r.Submit(testRecord("a"))
	r.Submit(testRecord("b"))
	r.Submit(testRecord("c"))

	got := r.Records()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].SDKMethod)
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "c", last.SDKMethod)

	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestFanOut(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	core.MultiSink{a, nil, b}.Submit(testRecord("x"))
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestMetricsSharedRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewMetrics(reg)
	b := NewMetrics(reg)

	a.Submit(testRecord("x"))
	b.Submit(testRecord("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(a.calls.WithLabelValues("x", "success")))
}
