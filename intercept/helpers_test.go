package intercept

import (
	"sync"
	"time"

	"github.com/petal-labs/warehouse/core"
)

// recorder is a test sink that keeps every submitted record.
type recorder struct {
	mu      sync.Mutex
	records []core.Record
}

func (r *recorder) Submit(rec core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recorder) all() []core.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Record(nil), r.records...)
}

func (r *recorder) last() core.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return core.Record{}
	}
	return r.records[len(r.records)-1]
}

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

// manualClock only moves when advanced.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestEngine(rec *recorder) *Engine {
	return NewEngine(rec, WithClock(newStepClock(10*time.Millisecond).Now), WithDebug(false))
}

// client stands in for an SDK client instance.
type client struct {
	name string
}

type chatRequest struct {
	Model    string   `json:"model"`
	Messages []string `json:"messages"`
	Stream   bool     `json:"stream,omitempty"`
}

type chatResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
