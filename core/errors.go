package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification.
var (
	ErrOwnerNotFound = errors.New("owner not found")
	ErrSinkClosed    = errors.New("sink closed")
	ErrInvalidConfig = errors.New("invalid config")
)

// DeliveryError describes a failed attempt to deliver records to a collector.
type DeliveryError struct {
	Endpoint string
	Status   int
	Records  int
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("deliver %d records to %s: %s", e.Records, e.Endpoint, e.Message)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status=%d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chaining.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
