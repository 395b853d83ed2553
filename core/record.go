package core

import (
	"encoding/json"
	"time"
)

// Outcome identifies how an intercepted call finished.
type Outcome string

const (
	// OutcomeSuccess means the call returned a value that was serialized into Response.
	OutcomeSuccess Outcome = "success"
	// OutcomeStreaming means the call returned a stream that was passed through unread.
	OutcomeStreaming Outcome = "streaming"
	// OutcomeError means the call returned an error.
	OutcomeError Outcome = "error"
)

// Record is the telemetry unit produced for every intercepted call.
//
// Exactly one of Response, Streaming and Error is meaningful, selected by
// Outcome. The JSON form only carries the field that belongs to the outcome,
// so a collector never sees a record that is both streaming and failed.
//
// A Record is a value. Once handed to a Sink it is a snapshot and is never
// mutated by the engine again.
type Record struct {
	ID        string    // Unique record identifier (uuid)
	Time      time.Time // When the call started
	SDKMethod string    // Logical label of the intercepted operation
	Request   any       // Serialized request
	Outcome   Outcome   // Which of Response, Streaming, Error applies
	Response  any       // Serialized result, success only
	Streaming bool      // True for streaming calls
	Latency   time.Duration
	Error     string  // Textual form of the returned error
	RequestID *string // Provider request id, success only; nil when unknown
}

// LatencySeconds returns Latency as fractional seconds.
func (r Record) LatencySeconds() float64 {
	return r.Latency.Seconds()
}

// Failed reports whether the call returned an error.
func (r Record) Failed() bool {
	return r.Outcome == OutcomeError
}

type recordJSON struct {
	ID        string          `json:"record_id,omitempty"`
	Time      *time.Time      `json:"timestamp,omitempty"`
	SDKMethod string          `json:"sdk_method"`
	Request   any             `json:"request"`
	Response  json.RawMessage `json:"response,omitempty"`
	Streaming bool            `json:"streaming,omitempty"`
	LatencyS  float64         `json:"latency_s"`
	Error     *string         `json:"error,omitempty"`
	RequestID json.RawMessage `json:"request_id,omitempty"`
}

// MarshalJSON encodes the record in the collector wire format.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:        r.ID,
		SDKMethod: r.SDKMethod,
		Request:   r.Request,
		LatencyS:  r.LatencySeconds(),
	}
	if !r.Time.IsZero() {
		t := r.Time.UTC()
		out.Time = &t
	}

	switch r.Outcome {
	case OutcomeStreaming:
		out.Streaming = true
	case OutcomeError:
		msg := r.Error
		out.Error = &msg
	default:
		resp, err := json.Marshal(r.Response)
		if err != nil {
			return nil, err
		}
		out.Response = resp
		if r.RequestID != nil {
			id, err := json.Marshal(*r.RequestID)
			if err != nil {
				return nil, err
			}
			out.RequestID = id
		} else {
			out.RequestID = json.RawMessage("null")
		}
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes the collector wire format.
// The outcome is inferred from which of error, streaming and response is present.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = Record{
		ID:        in.ID,
		SDKMethod: in.SDKMethod,
		Request:   in.Request,
		Latency:   time.Duration(in.LatencyS * float64(time.Second)),
	}
	if in.Time != nil {
		r.Time = *in.Time
	}

	switch {
	case in.Error != nil:
		r.Outcome = OutcomeError
		r.Error = *in.Error
	case in.Streaming:
		r.Outcome = OutcomeStreaming
		r.Streaming = true
	default:
		r.Outcome = OutcomeSuccess
		if len(in.Response) > 0 {
			var resp any
			if err := json.Unmarshal(in.Response, &resp); err != nil {
				return err
			}
			r.Response = resp
		}
		if len(in.RequestID) > 0 && string(in.RequestID) != "null" {
			var id string
			if err := json.Unmarshal(in.RequestID, &id); err != nil {
				return err
			}
			r.RequestID = &id
		}
	}
	return nil
}
