package intercept

import (
	"context"
	"iter"
	"sync/atomic"
	"time"
)

// SeqFunc is a streaming SDK call on client C that yields chunks lazily.
type SeqFunc[C, Req, T any] func(ctx context.Context, c C, req Req) (iter.Seq2[T, error], error)

// Seq is a method slot for iterator-style streaming calls.
type Seq[C, Req, T any] struct {
	fn atomic.Pointer[SeqFunc[C, Req, T]]
	h  hooks[Req]

	wrapped atomic.Bool
}

// NewSeq creates a slot holding fn.
func NewSeq[C, Req, T any](fn SeqFunc[C, Req, T]) *Seq[C, Req, T] {
	m := &Seq[C, Req, T]{}
	m.fn.Store(&fn)
	return m
}

// RequestView sets the projection of a request that gets recorded.
func (m *Seq[C, Req, T]) RequestView(f func(Req) any) *Seq[C, Req, T] {
	m.h.view = f
	return m
}

// Call invokes the current implementation.
func (m *Seq[C, Req, T]) Call(ctx context.Context, c C, req Req) (iter.Seq2[T, error], error) {
	return (*m.fn.Load())(ctx, c, req)
}

// Shape returns ShapeSeq.
func (m *Seq[C, Req, T]) Shape() Shape { return ShapeSeq }

func (m *Seq[C, Req, T]) instrument(e *Engine, label string) bool {
	if !m.wrapped.CompareAndSwap(false, true) {
		return false
	}
	wrapped := wrapSeq(e, label, *m.fn.Load(), m.h)
	m.fn.Store(&wrapped)
	return true
}

func wrapSeq[C, Req, T any](e *Engine, label string, fn SeqFunc[C, Req, T], h hooks[Req]) SeqFunc[C, Req, T] {
	return func(ctx context.Context, c C, req Req) (iter.Seq2[T, error], error) {
		rc := e.begin(label, h.request(req))

		seq, err := fn(ctx, c, req)
		rc.returned()
		if err != nil {
			rc.failed(err)
			return seq, err
		}
		rc.streaming()

		if seq == nil {
			return seq, nil
		}
		return ObserveSeq2(seq, func(n int, elapsed time.Duration) {
			e.diag("stream finished", "label", label, "chunks", n, "elapsed", elapsed)
		}), nil
	}
}

// ObserveSeq returns a single-use proxy of seq that forwards every element
// untouched and calls done with the element count and elapsed time once
// iteration stops. Ranging over the proxy a second time yields nothing.
func ObserveSeq[T any](seq iter.Seq[T], done func(n int, elapsed time.Duration)) iter.Seq[T] {
	var used atomic.Bool
	return func(yield func(T) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		start := time.Now()
		n := 0
		defer func() {
			if done != nil {
				done(n, time.Since(start))
			}
		}()
		for v := range seq {
			n++
			if !yield(v) {
				return
			}
		}
	}
}

// ObserveSeq2 is ObserveSeq for two-value sequences.
func ObserveSeq2[K, V any](seq iter.Seq2[K, V], done func(n int, elapsed time.Duration)) iter.Seq2[K, V] {
	var used atomic.Bool
	return func(yield func(K, V) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		start := time.Now()
		n := 0
		defer func() {
			if done != nil {
				done(n, time.Since(start))
			}
		}()
		for k, v := range seq {
			n++
			if !yield(k, v) {
				return
			}
		}
	}
}
