// Package serialize converts arbitrary call arguments and results into plain
// data that can be carried by a telemetry record.
//
// Conversion is best effort and never fails: a value that cannot be exported
// or encoded is reported by its textual form instead.
package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MapExporter is implemented by values that can export themselves as a plain
// mapping and may fail while doing so.
type MapExporter interface {
	ToMap() (map[string]any, error)
}

type mapper interface {
	ToMap() map[string]any
}

type modelDumper interface {
	ModelDump() map[string]any
}

// rawJSONer matches SDK response types that keep the payload they were decoded from.
type rawJSONer interface {
	RawJSON() string
}

// Value returns a transport-safe representation of v.
//
// Resolution order, first success wins:
//  1. an export capability, tried as ToMap, MapExporter, ModelDump, RawJSON
//  2. the JSON-decoded form of v when v encodes as JSON
//  3. the textual form of v
//
// The result shares no memory with v, so later mutations of v by the caller
// do not leak into a record that was already submitted.
func Value(v any) any {
	if out, ok := export(v); ok {
		return out
	}
	if out, ok := encode(v); ok {
		return out
	}
	return Text(v)
}

// Text returns the textual representation of v. It never returns an empty string.
func Text(v any) (s string) {
	defer func() {
		if recover() != nil || s == "" {
			s = fmt.Sprintf("%T", v)
		}
	}()
	return fmt.Sprintf("%+v", v)
}

func export(v any) (out any, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()

	switch x := v.(type) {
	case mapper:
		m := x.ToMap()
		if m == nil {
			return nil, false
		}
		return encode(m)
	case MapExporter:
		m, err := x.ToMap()
		if err != nil || m == nil {
			return nil, false
		}
		return encode(m)
	case modelDumper:
		m := x.ModelDump()
		if m == nil {
			return nil, false
		}
		return encode(m)
	case rawJSONer:
		raw := strings.TrimSpace(x.RawJSON())
		if raw == "" {
			return nil, false
		}
		return decode([]byte(raw))
	}
	return nil, false
}

func encode(v any) (out any, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()

	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return decode(data)
}

func decode(data []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, false
	}
	return out, true
}
