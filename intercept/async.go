package intercept

import (
	"context"
	"sync/atomic"
)

// Result is the outcome of an asynchronous call.
type Result[T any] struct {
	Value T
	Err   error
}

// AsyncFunc is a non-blocking SDK call on client C.
// The returned channel delivers at most one Result and is then closed.
type AsyncFunc[C, Req, Resp any] func(ctx context.Context, c C, req Req) <-chan Result[Resp]

// Async is a method slot for asynchronous calls.
type Async[C, Req, Resp any] struct {
	fn atomic.Pointer[AsyncFunc[C, Req, Resp]]
	h  hooks[Req]

	wrapped atomic.Bool
}

// NewAsync creates a slot holding fn.
func NewAsync[C, Req, Resp any](fn AsyncFunc[C, Req, Resp]) *Async[C, Req, Resp] {
	m := &Async[C, Req, Resp]{}
	m.fn.Store(&fn)
	return m
}

// DetectStream sets an extra predicate that marks a request as streaming.
func (m *Async[C, Req, Resp]) DetectStream(f func(Req) bool) *Async[C, Req, Resp] {
	m.h.stream = f
	return m
}

// RequestView sets the projection of a request that gets recorded.
func (m *Async[C, Req, Resp]) RequestView(f func(Req) any) *Async[C, Req, Resp] {
	m.h.view = f
	return m
}

// Call invokes the current implementation.
func (m *Async[C, Req, Resp]) Call(ctx context.Context, c C, req Req) <-chan Result[Resp] {
	return (*m.fn.Load())(ctx, c, req)
}

// Shape returns ShapeAsync.
func (m *Async[C, Req, Resp]) Shape() Shape { return ShapeAsync }

func (m *Async[C, Req, Resp]) instrument(e *Engine, label string) bool {
	if !m.wrapped.CompareAndSwap(false, true) {
		return false
	}
	wrapped := wrapAsync(e, label, *m.fn.Load(), m.h)
	m.fn.Store(&wrapped)
	return true
}

// WrapAsync returns fn instrumented with e, for SDK calls that have no adapter.
func WrapAsync[C, Req, Resp any](e *Engine, label string, fn AsyncFunc[C, Req, Resp]) AsyncFunc[C, Req, Resp] {
	return wrapAsync(e, label, fn, hooks[Req]{})
}

func wrapAsync[C, Req, Resp any](e *Engine, label string, fn AsyncFunc[C, Req, Resp], h hooks[Req]) AsyncFunc[C, Req, Resp] {
	return func(ctx context.Context, c C, req Req) <-chan Result[Resp] {
		rc := e.begin(label, h.request(req))

		src := fn(ctx, c, req)
		if src == nil {
			return nil
		}

		out := make(chan Result[Resp], 1)
		go func() {
			defer close(out)

			res, ok := <-src
			if !ok {
				// The call ended without a result, typically because the
				// caller's context was canceled. Nothing is recorded.
				return
			}
			rc.returned()

			switch {
			case res.Err != nil:
				rc.failed(res.Err)
			case h.streaming(req) || isLazy(res.Value):
				rc.streaming()
			default:
				rc.succeeded(res.Value)
			}
			out <- res
		}()
		return out
	}
}

// Go runs fn on a new goroutine and delivers its outcome on the returned channel.
// Adapters use it to expose blocking SDK calls in the async shape.
func Go[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
