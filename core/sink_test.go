package core

import "testing"

func TestSinkFunc(t *testing.T) {
	var got []Record
	s := SinkFunc(func(r Record) { got = append(got, r) })

	s.Submit(Record{SDKMethod: "a"})
	s.Submit(Record{SDKMethod: "b"})

	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[1].SDKMethod != "b" {
		t.Errorf("SDKMethod = %q, want b", got[1].SDKMethod)
	}
}

func TestNoopSinkDoesNotPanic(t *testing.T) {
	NoopSink{}.Submit(Record{SDKMethod: "x", Outcome: OutcomeError, Error: "boom"})
}

func TestMultiSinkFansOut(t *testing.T) {
	var a, b int
	m := MultiSink{
		SinkFunc(func(Record) { a++ }),
		nil,
		SinkFunc(func(Record) { b++ }),
	}

	m.Submit(Record{})

	if a != 1 || b != 1 {
		t.Errorf("a=%d b=%d, want 1 and 1", a, b)
	}
}
