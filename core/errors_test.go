package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDeliveryErrorMessage(t *testing.T) {
	err := &DeliveryError{
		Endpoint: "http://collector/v1/records",
		Status:   503,
		Records:  4,
		Message:  "service unavailable",
	}

	msg := err.Error()
	for _, want := range []string{"4 records", "http://collector/v1/records", "503", "service unavailable"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, should contain %q", msg, want)
		}
	}
}

func TestDeliveryErrorWithoutStatus(t *testing.T) {
	err := &DeliveryError{Endpoint: "http://collector", Records: 1, Message: "dial failed"}

	if strings.Contains(err.Error(), "status=") {
		t.Errorf("Error() = %q, should not mention status when zero", err.Error())
	}
}

func TestDeliveryErrorIncludesCause(t *testing.T) {
	err := &DeliveryError{Endpoint: "http://collector", Records: 2, Message: "send", Err: errors.New("connection refused")}

	want := "deliver 2 records to http://collector: send: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	err := &DeliveryError{Endpoint: "x", Message: "closed", Err: ErrSinkClosed}

	if !errors.Is(err, ErrSinkClosed) {
		t.Error("errors.Is(err, ErrSinkClosed) should be true")
	}

	var de *DeliveryError
	if !errors.As(error(err), &de) {
		t.Fatal("errors.As should find *DeliveryError")
	}
	if de.Endpoint != "x" {
		t.Errorf("Endpoint = %q, want x", de.Endpoint)
	}
}

func TestSentinelErrorsDistinct(t *testing.T) {
	sentinels := []error{ErrOwnerNotFound, ErrSinkClosed, ErrInvalidConfig}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
