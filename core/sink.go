package core

// Sink receives completed call records.
//
// Submit is called on the caller's goroutine right before the intercepted call
// returns, so implementations MUST NOT block for long and MUST NOT panic.
// Buffering, retry and network delivery are entirely the sink's business;
// the engine never inspects the outcome of a submission.
//
// Implementations must be safe for concurrent use.
type Sink interface {
	Submit(r Record)
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(r Record)

// Submit calls f(r).
func (f SinkFunc) Submit(r Record) { f(r) }

// NoopSink discards every record.
// Use this as a default when no delivery is configured.
type NoopSink struct{}

// Submit does nothing.
func (NoopSink) Submit(Record) {}

// MultiSink fans a record out to every sink in order.
type MultiSink []Sink

// Submit forwards r to each non-nil sink.
func (m MultiSink) Submit(r Record) {
	for _, s := range m {
		if s != nil {
			s.Submit(r)
		}
	}
}

// Compile-time interface checks.
var (
	_ Sink = NoopSink{}
	_ Sink = SinkFunc(nil)
	_ Sink = MultiSink(nil)
)
