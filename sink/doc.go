// Package sink provides record delivery for instrumented calls.
//
// Every sink here implements core.Sink and never blocks or panics in Submit:
//
//   - [HTTP] batches records and posts them to a collector in the background
//   - [Log] writes one structured log line per record
//   - [Metrics] maintains Prometheus counters and latency histograms
//   - [Tracing] emits one OpenTelemetry span per record
//   - [Recorder] keeps records in memory, for tests and the CLI
//
// Sinks compose with core.MultiSink.
package sink
