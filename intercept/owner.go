package intercept

import (
	"sort"
	"sync"
)

// Shape describes how a slot returns its result.
type Shape int

const (
	// ShapeSync returns the result directly.
	ShapeSync Shape = iota
	// ShapeAsync delivers the result on a channel.
	ShapeAsync
	// ShapeSeq returns a lazily produced sequence.
	ShapeSeq
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeSync:
		return "sync"
	case ShapeAsync:
		return "async"
	case ShapeSeq:
		return "seq"
	}
	return "unknown"
}

// Method is a swappable implementation slot on an Owner.
// It is implemented by [Sync], [Async] and [Seq].
type Method interface {
	// Shape reports the call shape of the slot.
	Shape() Shape

	// instrument wraps the slot with e unless it is already instrumented.
	instrument(e *Engine, label string) bool
}

// Owner is a named set of method slots, the unit that instrumentation targets.
// Owner is safe for concurrent use.
type Owner struct {
	name    string
	mu      sync.RWMutex
	methods map[string]Method
}

// NewOwner creates an empty owner.
func NewOwner(name string) *Owner {
	return &Owner{
		name:    name,
		methods: make(map[string]Method),
	}
}

// Name returns the owner name.
func (o *Owner) Name() string {
	return o.name
}

// Define registers m under attr, replacing any previous slot.
// Nil methods are ignored.
func (o *Owner) Define(attr string, m Method) *Owner {
	if m == nil {
		return o
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.methods[attr] = m
	return o
}

// Lookup returns the slot registered under attr.
func (o *Owner) Lookup(attr string) (Method, bool) {
	if o == nil {
		return nil, false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.methods[attr]
	return m, ok
}

// Attrs returns the defined attribute names in sorted order.
func (o *Owner) Attrs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	names := make([]string, 0, len(o.methods))
	for name := range o.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
