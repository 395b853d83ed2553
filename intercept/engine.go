package intercept

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/serialize"
)

// Engine installs instrumented implementations into method slots and turns
// every instrumented call into a record for its sink.
// Engine is safe for concurrent use.
type Engine struct {
	sink   core.Sink
	logger *slog.Logger
	debug  bool
	now    func() time.Time
	newID  func() string
	first  atomic.Pointer[func()]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDebug overrides the diagnostic toggle read from LLM_WAREHOUSE_DEBUG.
func WithDebug(on bool) Option {
	return func(e *Engine) {
		e.debug = on
	}
}

// WithClock sets the time source used to stamp records and measure latency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine that submits records to sink.
// A nil sink discards records.
func NewEngine(sink core.Sink, opts ...Option) *Engine {
	e := &Engine{
		sink:   core.NoopSink{},
		logger: slog.Default(),
		debug:  core.DebugEnabled(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if sink != nil {
		e.sink = sink
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sink returns the sink records are submitted to.
func (e *Engine) Sink() core.Sink {
	return e.sink
}

// Install replaces owner's attr slot with an instrumented version that labels
// its records with label, and reports whether it did. Missing owners or
// attributes make Install a no-op.
//
// A slot is instrumented at most once per process, whichever engine gets
// there first; later installs leave it alone and return false.
func (e *Engine) Install(owner *Owner, attr, label string) bool {
	m, ok := owner.Lookup(attr)
	if !ok {
		e.diag("attribute not found, skipping", "owner", ownerName(owner), "attr", attr)
		return false
	}
	if !m.instrument(e, label) {
		e.diag("already instrumented, skipping", "owner", owner.Name(), "attr", attr)
		return false
	}
	e.diag("wrapping", "owner", owner.Name(), "attr", attr, "label", label, "shape", m.Shape().String())
	return true
}

// OnFirstCall registers fn to run once, on the goroutine of the first
// instrumented call made through e. A later registration replaces an
// earlier one that has not fired yet.
func (e *Engine) OnFirstCall(fn func()) {
	if fn != nil {
		e.first.Store(&fn)
	}
}

func ownerName(o *Owner) string {
	if o == nil {
		return "<nil>"
	}
	return o.Name()
}

// diag writes a diagnostic line when debug mode is on.
func (e *Engine) diag(msg string, args ...any) {
	if !e.debug {
		return
	}
	e.logger.Info("[llm-warehouse] "+msg, args...)
}

// call is the per-invocation state of an instrumented call.
type call struct {
	e     *Engine
	start time.Time
	rec   core.Record
}

// begin serializes req and starts the clock. The returned call must be
// stopped with returned as soon as the underlying SDK call hands back its
// result, so that latency covers the SDK alone.
func (e *Engine) begin(label string, req any) *call {
	if e.first.Load() != nil {
		if fn := e.first.Swap(nil); fn != nil {
			(*fn)()
		}
	}
	request := serialize.Value(req)
	start := e.now()
	return &call{
		e:     e,
		start: start,
		rec: core.Record{
			ID:        e.newID(),
			Time:      start,
			SDKMethod: label,
			Request:   request,
		},
	}
}

func (c *call) returned() {
	c.rec.Latency = c.e.now().Sub(c.start)
}

func (c *call) streaming() {
	c.rec.Outcome = core.OutcomeStreaming
	c.rec.Streaming = true
	c.submit()
}

func (c *call) failed(err error) {
	c.rec.Outcome = core.OutcomeError
	c.rec.Error = errorText(err)
	c.submit()
}

func (c *call) succeeded(result any) {
	c.rec.Outcome = core.OutcomeSuccess
	c.rec.Response = responseValue(result)
	c.rec.RequestID = requestID(result)
	c.submit()
}

func (c *call) submit() {
	c.e.sink.Submit(c.rec)
	c.e.diag("recorded call",
		"label", c.rec.SDKMethod,
		"outcome", string(c.rec.Outcome),
		"latency", c.rec.Latency)
}

func errorText(err error) (s string) {
	defer func() {
		if recover() != nil {
			s = serialize.Text(err)
		}
	}()
	s = err.Error()
	if s == "" {
		s = serialize.Text(err)
	}
	return s
}
