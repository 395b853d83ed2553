// Package core defines the types shared by every part of the warehouse:
// the call [Record], the [Sink] contract records are delivered through,
// sentinel errors and the environment toggles.
//
// # Records
//
// Every instrumented SDK call produces exactly one [Record] unless the call
// panics. The record's [Outcome] selects which of its fields are meaningful:
//
//	success    Response and RequestID
//	streaming  Streaming is true, no response body
//	error      Error holds the error text
//
// The JSON encoding of a record follows the collector wire format and only
// carries the fields of its outcome.
//
// # Sinks
//
// A [Sink] receives records on the caller's goroutine. Sinks absorb their
// own failures; nothing a sink does can change the result the caller sees.
// [SinkFunc], [NoopSink] and [MultiSink] cover the trivial cases, the sink
// package provides delivery.
//
// # Environment
//
// LLM_WAREHOUSE_ENABLED and LLM_WAREHOUSE_DEBUG are parsed with [Truthy]:
// "", "0", "false", "no" and "off" are off, anything else is on.
package core
