package serialize

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type dictResult struct {
	calls int
}

func (d *dictResult) ToMap() map[string]any {
	d.calls++
	return map[string]any{"id": "r1", "text": "ok"}
}

type failingExporter struct{}

func (failingExporter) ToMap() (map[string]any, error) {
	return nil, errors.New("export failed")
}

func (failingExporter) MarshalJSON() ([]byte, error) {
	return nil, errors.New("encode failed")
}

type panickingExporter struct{ Name string }

func (panickingExporter) ModelDump() map[string]any {
	panic("dump exploded")
}

func (panickingExporter) MarshalJSON() ([]byte, error) {
	panic("marshal exploded")
}

type rawResult struct{}

func (rawResult) RawJSON() string { return `{"id":"msg_1","usage":{"input_tokens":3}}` }

type plain struct {
	Model    string   `json:"model"`
	Messages []string `json:"messages"`
}

func TestValueUsesExportFirst(t *testing.T) {
	d := &dictResult{}
	got, ok := Value(d).(map[string]any)
	if !ok {
		t.Fatalf("Value() = %T, want map", Value(d))
	}
	if got["id"] != "r1" || got["text"] != "ok" {
		t.Errorf("Value() = %v", got)
	}
	if d.calls == 0 {
		t.Error("ToMap should have been called")
	}
}

func TestValueRawJSON(t *testing.T) {
	got, ok := Value(rawResult{}).(map[string]any)
	if !ok {
		t.Fatalf("Value() = %T, want map", Value(rawResult{}))
	}
	if got["id"] != "msg_1" {
		t.Errorf("id = %v, want msg_1", got["id"])
	}
	usage := got["usage"].(map[string]any)
	if usage["input_tokens"] != json.Number("3") {
		t.Errorf("input_tokens = %#v, want json.Number(3)", usage["input_tokens"])
	}
}

func TestValueEncodable(t *testing.T) {
	in := plain{Model: "x", Messages: []string{"hello"}}
	got, ok := Value(in).(map[string]any)
	if !ok {
		t.Fatalf("Value() = %T, want map", Value(in))
	}
	if got["model"] != "x" {
		t.Errorf("model = %v, want x", got["model"])
	}
}

func TestValueSnapshotIsIndependent(t *testing.T) {
	in := &plain{Model: "x", Messages: []string{"a"}}
	got := Value(in).(map[string]any)

	in.Model = "changed"
	in.Messages[0] = "changed"

	if got["model"] != "x" {
		t.Errorf("snapshot changed: model = %v", got["model"])
	}
	if got["messages"].([]any)[0] != "a" {
		t.Errorf("snapshot changed: messages = %v", got["messages"])
	}
}

func TestValuePrimitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", "hello", "hello"},
		{"bool", true, true},
		{"nil", nil, nil},
		{"int", 42, json.Number("42")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Value(tt.in); got != tt.want {
				t.Errorf("Value(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValueFallsBackToText(t *testing.T) {
	ch := make(chan int)
	got, ok := Value(ch).(string)
	if !ok {
		t.Fatalf("Value(chan) = %T, want string", Value(ch))
	}
	if got == "" {
		t.Error("textual fallback should not be empty")
	}
}

func TestValueFailingEverywhere(t *testing.T) {
	got, ok := Value(failingExporter{}).(string)
	if !ok {
		t.Fatalf("Value() = %T, want string", Value(failingExporter{}))
	}
	if got == "" {
		t.Error("textual fallback should not be empty")
	}
}

func TestValuePanickingNeverPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Value() panicked: %v", r)
		}
	}()

	got, ok := Value(panickingExporter{Name: "p"}).(string)
	if !ok {
		t.Fatal("Value() should fall back to text")
	}
	if !strings.Contains(got, "p") {
		t.Errorf("Value() = %q, want textual form containing the field", got)
	}
}

func TestTextNeverEmpty(t *testing.T) {
	if got := Text(""); got == "" {
		t.Error("Text(\"\") should not be empty")
	}
	if got := Text(struct{}{}); got == "" {
		t.Error("Text(struct{}{}) should not be empty")
	}
}
