package sink

import (
	"sync"

	"github.com/petal-labs/warehouse/core"
)

// Recorder keeps records in memory, oldest first.
// A positive limit keeps only the most recent records.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	records []core.Record
}

// NewRecorder creates a Recorder. A limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Submit stores r.
func (r *Recorder) Submit(rec core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = append(r.records[:0:0], r.records[len(r.records)-r.limit:]...)
	}
}

// Records returns a copy of the stored records.
func (r *Recorder) Records() []core.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Record(nil), r.records...)
}

// Len returns the number of stored records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Last returns the most recent record.
func (r *Recorder) Last() (core.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return core.Record{}, false
	}
	return r.records[len(r.records)-1], true
}

// Reset discards all stored records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

var _ core.Sink = (*Recorder)(nil)
