package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// transportErr is a delivery that never reached the collector.
var transportErr = &DeliveryError{Endpoint: "http://collector", Records: 1, Message: "dial failed", Err: errors.New("connection refused")}

func statusErr(status int) error {
	return &DeliveryError{Endpoint: "http://collector", Records: 1, Message: "rejected", Status: status}
}

func TestDefaultRetryPolicy(t *testing.T) {
	if DefaultRetryPolicy() == nil {
		t.Fatal("DefaultRetryPolicy() returned nil")
	}
}

func TestRetryPolicyRetryableErrors(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		name string
		err  error
	}{
		{"transport failure", transportErr},
		{"wrapped transport failure", fmt.Errorf("flush: %w", transportErr)},
		{"status 429", statusErr(429)},
		{"status 500", statusErr(500)},
		{"status 502", statusErr(502)},
		{"status 503", statusErr(503)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := policy.NextDelay(0, tt.err); !ok {
				t.Errorf("NextDelay(0, %v) should retry", tt.err)
			}
		})
	}
}

func TestRetryPolicyNonRetryableErrors(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		name string
		err  error
	}{
		{"status 400", statusErr(400)},
		{"status 401", statusErr(401)},
		{"status 413", statusErr(413)},
		{"delivery error without cause", &DeliveryError{Endpoint: "x", Message: "encode"}},
		{"sink closed", ErrSinkClosed},
		{"context.Canceled", context.Canceled},
		{"context.DeadlineExceeded", context.DeadlineExceeded},
		{"nil error", nil},
		{"unknown error", errors.New("unknown error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := policy.NextDelay(0, tt.err); ok {
				t.Errorf("NextDelay(0, %v) should not retry", tt.err)
			}
		})
	}
}

func TestRetryPolicyMaxRetries(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Jitter:     0,
	})

	for attempt := 0; attempt < 3; attempt++ {
		if _, ok := policy.NextDelay(attempt, transportErr); !ok {
			t.Errorf("NextDelay(%d, err) should allow retry", attempt)
		}
	}
	if _, ok := policy.NextDelay(3, transportErr); ok {
		t.Error("NextDelay(3, err) should not allow retry (exceeds max)")
	}
}

func TestRetryPolicyExponentialBackoff(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 5,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Jitter:     0,
	})

	for attempt := 0; attempt < 4; attempt++ {
		delay, ok := policy.NextDelay(attempt, transportErr)
		if !ok {
			t.Fatalf("NextDelay(%d, err) should allow retry", attempt)
		}
		want := 100 * time.Millisecond * time.Duration(1<<attempt)
		if delay != want {
			t.Errorf("attempt %d: delay = %v, want %v", attempt, delay, want)
		}
	}
}

func TestRetryPolicyMaxDelayCap(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 10,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
		Jitter:     0,
	})

	delay, ok := policy.NextDelay(5, transportErr)
	if !ok {
		t.Fatal("should allow retry")
	}
	if delay != 5*time.Second {
		t.Errorf("delay = %v, want 5s (max cap)", delay)
	}
}

func TestRetryPolicyJitter(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     0.5,
	})

	delays := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		delay, ok := policy.NextDelay(0, statusErr(503))
		if !ok {
			t.Fatal("should allow retry")
		}
		delays[delay] = true
		if delay < 500*time.Millisecond || delay > 1500*time.Millisecond {
			t.Errorf("delay %v outside expected jitter range [0.5s, 1.5s]", delay)
		}
	}
	if len(delays) < 2 {
		t.Error("jitter should produce varying delays")
	}
}

func TestRetryPolicyConfigDefaults(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{MaxRetries: 0, BaseDelay: 0, MaxDelay: 0, Jitter: -1})

	delay, ok := policy.NextDelay(0, transportErr)
	if !ok {
		t.Fatal("should allow retry with defaults")
	}
	if delay < 800*time.Millisecond || delay > 1200*time.Millisecond {
		t.Errorf("delay = %v, want about 1s", delay)
	}
	if _, ok := policy.NextDelay(3, transportErr); ok {
		t.Error("default MaxRetries should be 3")
	}
}

func TestNoRetry(t *testing.T) {
	policy := NoRetry()
	for _, err := range []error{transportErr, statusErr(503), statusErr(429)} {
		if _, ok := policy.NextDelay(0, err); ok {
			t.Errorf("NoRetry().NextDelay(0, %v) should not retry", err)
		}
	}
}
