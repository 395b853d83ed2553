// Package providers holds the SDK adapters that warehouse can instrument.
//
// Each adapter lives in its own subpackage (providers/openai,
// providers/anthropic). An adapter wraps a third-party SDK client in a
// client type of the same shape and routes every call through the method
// slots of an [intercept.Owner]. Adapters register their owners here from
// init(), which is what makes them resolvable by the install package.
//
// # Owners
//
// An owner name identifies an SDK resource, independent of the SDK version:
//
//	openai.chat.completions         Create, CreateStream, Stream
//	openai.completions              Create, CreateStream
//	openai.async.chat.completions   Create
//	openai.async.completions        Create
//	anthropic.messages              Create
//	anthropic.completions           Create
//	anthropic.async.messages        Create
//	anthropic.async.completions     Create
//
// Owners that are not linked into the binary fail resolution, and the
// installation controller skips them. An owner registered after
// installation ran, because its package initialized later, is picked up
// through [Watch].
//
// # Concurrency
//
// The registry is safe for concurrent use. Adapters MUST be safe for
// concurrent calls when the SDK client they wrap is.
package providers
