package core

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"
)

// RetryPolicy decides whether a failed delivery is attempted again.
// attempt counts retries already made, starting at 0.
type RetryPolicy interface {
	NextDelay(attempt int, err error) (delay time.Duration, ok bool)
}

// RetryConfig configures exponential backoff. Zero fields take defaults.
type RetryConfig struct {
	MaxRetries int           // default 3
	BaseDelay  time.Duration // default 1s, doubled per attempt
	MaxDelay   time.Duration // default 30s
	Jitter     float64       // fraction of the delay, 0..1; default 0.2
}

// DefaultRetryPolicy is the policy of the HTTP sink.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(RetryConfig{})
}

// NewRetryPolicy returns exponential backoff with jitter for cfg.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0.2
	}
	return backoff(cfg)
}

// NoRetry never retries.
func NoRetry() RetryPolicy {
	return noRetry{}
}

type noRetry struct{}

func (noRetry) NextDelay(int, error) (time.Duration, bool) { return 0, false }

type backoff RetryConfig

func (b backoff) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt >= b.MaxRetries || !retryable(err) {
		return 0, false
	}

	delay := b.BaseDelay << attempt
	if delay <= 0 || delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	if b.Jitter > 0 {
		spread := float64(delay) * b.Jitter
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	return min(max(delay, 0), b.MaxDelay), true
}

// retryable reports whether err is worth another attempt: the collector was
// unreachable, rate limited, or failed with a server error.
func retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrSinkClosed):
		return false
	}

	var de *DeliveryError
	if !errors.As(err, &de) {
		return false
	}
	switch {
	case de.Status == 0:
		return de.Err != nil
	case de.Status == http.StatusTooManyRequests:
		return true
	default:
		return de.Status >= 500 && de.Status < 600
	}
}
