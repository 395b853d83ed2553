package sink

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of a delivery circuit breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal delivery.
	CircuitOpen                         // Collector failing, batches are shed.
	CircuitHalfOpen                     // Probing whether the collector recovered.
)

// String returns the string representation of a CircuitState.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures circuit breaking for batch delivery.
type BreakerConfig struct {
	FailureThreshold int           // Consecutive failed batches before opening.
	SuccessThreshold int           // Successful batches in half-open to close.
	OpenDuration     time.Duration // How long to shed batches once open.
}

// DefaultBreakerConfig returns the breaker used by NewHTTP.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		OpenDuration:     30 * time.Second,
	}
}

// ErrCircuitOpen is reported for batches shed while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open: collector unavailable")

// breaker stops delivery attempts to a collector that keeps failing, so a
// dead endpoint does not hold the delivery loop in retry sleeps.
type breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
}

func newBreaker(cfg BreakerConfig, now func() time.Time) *breaker {
	if now == nil {
		now = time.Now
	}
	return &breaker{cfg: cfg, now: now}
}

// allow reports whether a batch may be attempted.
// A disabled breaker (FailureThreshold <= 0) always allows.
func (b *breaker) allow() error {
	if b.cfg.FailureThreshold <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen && b.now().Sub(b.lastFailure) > b.cfg.OpenDuration {
		b.state = CircuitHalfOpen
		b.successes = 0
	}
	if b.state == CircuitOpen {
		return ErrCircuitOpen
	}
	return nil
}

// record feeds the outcome of one attempted batch.
func (b *breaker) record(err error) {
	if b.cfg.FailureThreshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = b.now()
		if b.state == CircuitHalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.state = CircuitOpen
		}
		return
	}

	if b.state == CircuitHalfOpen {
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = CircuitClosed
			b.failures = 0
		}
		return
	}
	b.failures = 0
}

func (b *breaker) current() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
