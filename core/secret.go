package core

import (
	"log/slog"
)

const redacted = "[REDACTED]"

// Secret is a credential that never prints, logs or marshals its value.
// Use Expose when the value is genuinely needed, e.g. for an Authorization header.
type Secret string

// String returns a redacted placeholder.
func (s Secret) String() string { return redacted }

// GoString returns a redacted placeholder for %#v.
func (s Secret) GoString() string { return "core.Secret{" + redacted + "}" }

// LogValue keeps the value out of slog output.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON returns a redacted JSON string.
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// MarshalText returns a redacted placeholder, keeping the value out of YAML and text encoders.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Expose returns the actual value.
func (s Secret) Expose() string { return string(s) }

// IsEmpty reports whether no value is set.
func (s Secret) IsEmpty() bool { return s == "" }

// IsRedacted reports whether the value is the placeholder Secret marshals to,
// as found in a dumped configuration.
func (s Secret) IsRedacted() bool { return s == redacted }
