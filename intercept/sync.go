package intercept

import (
	"context"
	"sync/atomic"
)

// SyncFunc is a blocking SDK call on client C.
type SyncFunc[C, Req, Resp any] func(ctx context.Context, c C, req Req) (Resp, error)

// Sync is a method slot for blocking calls.
type Sync[C, Req, Resp any] struct {
	fn atomic.Pointer[SyncFunc[C, Req, Resp]]
	h  hooks[Req]

	wrapped atomic.Bool
}

// NewSync creates a slot holding fn.
func NewSync[C, Req, Resp any](fn SyncFunc[C, Req, Resp]) *Sync[C, Req, Resp] {
	m := &Sync[C, Req, Resp]{}
	m.fn.Store(&fn)
	return m
}

// DetectStream sets an extra predicate that marks a request as streaming.
// It must be set before the slot is instrumented.
func (m *Sync[C, Req, Resp]) DetectStream(f func(Req) bool) *Sync[C, Req, Resp] {
	m.h.stream = f
	return m
}

// RequestView sets the projection of a request that gets recorded.
// It must be set before the slot is instrumented.
func (m *Sync[C, Req, Resp]) RequestView(f func(Req) any) *Sync[C, Req, Resp] {
	m.h.view = f
	return m
}

// Call invokes the current implementation.
func (m *Sync[C, Req, Resp]) Call(ctx context.Context, c C, req Req) (Resp, error) {
	return (*m.fn.Load())(ctx, c, req)
}

// Shape returns ShapeSync.
func (m *Sync[C, Req, Resp]) Shape() Shape { return ShapeSync }

func (m *Sync[C, Req, Resp]) instrument(e *Engine, label string) bool {
	if !m.wrapped.CompareAndSwap(false, true) {
		return false
	}
	wrapped := wrapSync(e, label, *m.fn.Load(), m.h)
	m.fn.Store(&wrapped)
	return true
}

// WrapSync returns fn instrumented with e, for SDK calls that have no adapter.
func WrapSync[C, Req, Resp any](e *Engine, label string, fn SyncFunc[C, Req, Resp]) SyncFunc[C, Req, Resp] {
	return wrapSync(e, label, fn, hooks[Req]{})
}

func wrapSync[C, Req, Resp any](e *Engine, label string, fn SyncFunc[C, Req, Resp], h hooks[Req]) SyncFunc[C, Req, Resp] {
	return func(ctx context.Context, c C, req Req) (Resp, error) {
		rc := e.begin(label, h.request(req))

		resp, err := fn(ctx, c, req)
		rc.returned()
		if err != nil {
			rc.failed(err)
			return resp, err
		}

		// Streams go back to the caller unread.
		if h.streaming(req) || isLazy(resp) {
			rc.streaming()
			return resp, nil
		}

		rc.succeeded(resp)
		return resp, nil
	}
}
