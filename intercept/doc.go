// Package intercept records calls made through SDK client adapters.
//
// Go cannot rebind methods on types it does not own, so adapters route their
// calls through method slots instead. An [Owner] groups the slots of one SDK
// resource (for example the chat completions API of a client). Every adapter
// client of that resource calls through the same slot, so installing
// instrumentation on the slot affects every client in the process.
//
// Three call shapes are supported:
//
//   - [Sync]: func(ctx, client, req) (resp, error)
//   - [Async]: func(ctx, client, req) <-chan Result[resp]
//   - [Seq]: func(ctx, client, req) (iter.Seq2[chunk, error], error)
//
// An instrumented slot builds a [core.Record] for each call, invokes the
// original function with identical arguments and submits the record to the
// engine's sink before handing the original result or error back unchanged.
//
// Streams are never read by the instrumentation. A call is treated as
// streaming when its request asks for it (a StreamFlagger, an exported bool
// field named Stream, or a "stream" key in a map request) or when the result
// is lazy (a channel, a function, or a value with a Recv or Next method).
//
// Panics raised by the original function are not recovered; such calls
// produce no record.
package intercept
