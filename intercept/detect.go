package intercept

import (
	"net/http"
	"reflect"

	"github.com/petal-labs/warehouse/serialize"
)

// StreamFlagger is implemented by requests that declare streaming intent.
type StreamFlagger interface {
	IsStream() bool
}

// Parser is implemented by raw results that can produce their final value.
// When a result is a Parser, the parsed value is recorded as the response.
type Parser interface {
	Parse() (any, error)
}

type requestIDer interface {
	RequestID() string
}

type headerer interface {
	Header() http.Header
}

// requestIDHeader is the header providers use to echo the request id.
const requestIDHeader = "X-Request-Id"

// streamRequested reports whether req asks for a streaming response.
func streamRequested(req any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if f, is := req.(StreamFlagger); is {
		return f.IsStream()
	}

	v, valid := indirect(reflect.ValueOf(req))
	if !valid {
		return false
	}
	switch v.Kind() {
	case reflect.Struct:
		f := v.FieldByName("Stream")
		return f.IsValid() && f.Kind() == reflect.Bool && f.Bool()
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return false
		}
		s, ok := v.Interface().(map[string]any)
		if !ok {
			return false
		}
		b, _ := s["stream"].(bool)
		return b
	}
	return false
}

// isLazy reports whether v is produced on demand: a channel, a function
// (iter.Seq and friends) or a receiver-style stream.
func isLazy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func:
		return !rv.IsNil()
	}
	t := rv.Type()
	if _, ok := t.MethodByName("Recv"); ok {
		return true
	}
	_, ok := t.MethodByName("Next")
	return ok
}

// responseValue serializes result, preferring its parsed form.
func responseValue(result any) any {
	if p, ok := result.(Parser); ok {
		if parsed, ok := parse(p); ok {
			return serialize.Value(parsed)
		}
	}
	return serialize.Value(result)
}

func parse(p Parser) (out any, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()
	v, err := p.Parse()
	if err != nil {
		return nil, false
	}
	return v, true
}

// requestID extracts the provider request id from result.
// It tries a RequestID method, the X-Request-Id response header and an
// exported string field named ID, in that order. Failure yields nil.
func requestID(result any) (id *string) {
	defer func() {
		if recover() != nil {
			id = nil
		}
	}()

	if result == nil {
		return nil
	}
	if s, ok := fromMethods(result); ok {
		return &s
	}

	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Pointer {
		// Pointer-receiver methods need an addressable copy.
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		if s, ok := fromMethods(p.Interface()); ok {
			return &s
		}
	}

	v, valid := indirect(rv)
	if !valid || v.Kind() != reflect.Struct {
		return nil
	}
	f := v.FieldByName("ID")
	if !f.IsValid() || f.Kind() != reflect.String || f.String() == "" {
		return nil
	}
	s := f.String()
	return &s
}

func fromMethods(v any) (string, bool) {
	if r, ok := v.(requestIDer); ok {
		if s := r.RequestID(); s != "" {
			return s, true
		}
	}
	if h, ok := v.(headerer); ok {
		if s := h.Header().Get(requestIDHeader); s != "" {
			return s, true
		}
	}
	return "", false
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}
