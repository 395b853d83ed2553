package core

import (
	"encoding/json"
	"testing"
	"time"
)

func decodeMap(t *testing.T, r Record) map[string]any {
	t.Helper()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return m
}

func TestRecordJSONSuccess(t *testing.T) {
	id := "r1"
	r := Record{
		SDKMethod: "openai.chat.completions.create",
		Request:   map[string]any{"model": "x"},
		Outcome:   OutcomeSuccess,
		Response:  map[string]any{"id": "r1", "text": "ok"},
		Latency:   250 * time.Millisecond,
		RequestID: &id,
	}

	m := decodeMap(t, r)

	if m["sdk_method"] != "openai.chat.completions.create" {
		t.Errorf("sdk_method = %v", m["sdk_method"])
	}
	if _, ok := m["response"]; !ok {
		t.Error("success record should carry response")
	}
	if _, ok := m["error"]; ok {
		t.Error("success record should not carry error")
	}
	if _, ok := m["streaming"]; ok {
		t.Error("success record should not carry streaming")
	}
	if m["request_id"] != "r1" {
		t.Errorf("request_id = %v, want r1", m["request_id"])
	}
	if m["latency_s"] != 0.25 {
		t.Errorf("latency_s = %v, want 0.25", m["latency_s"])
	}
}

func TestRecordJSONSuccessNullRequestID(t *testing.T) {
	m := decodeMap(t, Record{SDKMethod: "x", Outcome: OutcomeSuccess, Response: "ok"})

	v, ok := m["request_id"]
	if !ok {
		t.Fatal("success record should carry request_id key")
	}
	if v != nil {
		t.Errorf("request_id = %v, want null", v)
	}
}

func TestRecordJSONStreaming(t *testing.T) {
	m := decodeMap(t, Record{SDKMethod: "x", Outcome: OutcomeStreaming, Streaming: true})

	if m["streaming"] != true {
		t.Errorf("streaming = %v, want true", m["streaming"])
	}
	for _, k := range []string{"response", "error", "request_id"} {
		if _, ok := m[k]; ok {
			t.Errorf("streaming record should not carry %s", k)
		}
	}
	if _, ok := m["latency_s"]; !ok {
		t.Error("latency_s must always be present")
	}
}

func TestRecordJSONError(t *testing.T) {
	m := decodeMap(t, Record{SDKMethod: "x", Outcome: OutcomeError, Error: "boom"})

	if m["error"] != "boom" {
		t.Errorf("error = %v, want boom", m["error"])
	}
	if _, ok := m["response"]; ok {
		t.Error("error record should not carry response")
	}
	if _, ok := m["streaming"]; ok {
		t.Error("error record should not carry streaming")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	id := "req_9"
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := Record{
		ID:        "abc",
		Time:      start,
		SDKMethod: "anthropic.messages.create",
		Request:   map[string]any{"model": "claude"},
		Outcome:   OutcomeSuccess,
		Response:  map[string]any{"text": "hi"},
		Latency:   time.Second,
		RequestID: &id,
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if out.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %v, want success", out.Outcome)
	}
	if out.RequestID == nil || *out.RequestID != "req_9" {
		t.Errorf("RequestID = %v, want req_9", out.RequestID)
	}
	if !out.Time.Equal(start) {
		t.Errorf("Time = %v, want %v", out.Time, start)
	}
	if out.Latency != time.Second {
		t.Errorf("Latency = %v, want 1s", out.Latency)
	}
	if out.ID != "abc" {
		t.Errorf("ID = %q, want abc", out.ID)
	}
}

func TestRecordUnmarshalInfersOutcome(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Outcome
	}{
		{"error", `{"sdk_method":"x","request":null,"latency_s":0.1,"error":"boom"}`, OutcomeError},
		{"streaming", `{"sdk_method":"x","request":null,"latency_s":0.1,"streaming":true}`, OutcomeStreaming},
		{"success", `{"sdk_method":"x","request":null,"latency_s":0.1,"response":{"a":1}}`, OutcomeSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.in), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if r.Outcome != tt.want {
				t.Errorf("Outcome = %v, want %v", r.Outcome, tt.want)
			}
		})
	}
}

func TestRecordFailed(t *testing.T) {
	if (Record{Outcome: OutcomeSuccess}).Failed() {
		t.Error("success record should not be failed")
	}
	if !(Record{Outcome: OutcomeError}).Failed() {
		t.Error("error record should be failed")
	}
}
