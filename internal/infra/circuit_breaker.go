package infra

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker in front of the audit sink. Session opens and closes must
// never wait on a dead sink: once the sink stops answering, delivery attempts
// fail fast and the outbox rows wait for the retry cron instead of piling up
// blocked workers. After a cooldown a single probe decides whether traffic
// flows again.

// CBState is the breaker position.
type CBState int

const (
	CBClosed   CBState = iota // sink reachable, deliveries flow
	CBOpen                    // sink down, deliveries fail fast
	CBHalfOpen                // cooldown elapsed, probing the sink
)

// String names the state for the health endpoint and logs.
func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the breaker is open. The audit
// worker treats it like any delivery failure: the outbox row keeps its
// pending status and backoff schedule.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig tunes when the breaker trips and recovers.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive sink failures before tripping
	SuccessThreshold int           // consecutive probe successes before closing
	OpenTimeout      time.Duration // cooldown before the first probe
}

// DefaultCBConfig matches the audit sink's posture: trip after five straight
// failures, hold off for a minute, close again after two good probes.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

// CircuitBreaker tracks consecutive sink outcomes and gates delivery
// attempts. Safe for use from the worker pool and the retry cron at once.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig

	state       CBState
	failures    int
	successes   int
	lastFailure time.Time
}

// NewCircuitBreaker starts closed.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed}
}

// State reports the breaker position, moving open to half-open once the
// cooldown has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CBOpen && time.Since(cb.lastFailure) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs one sink call through the breaker. While open it returns
// ErrCircuitOpen without touching the sink.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.record(err == nil)
	return err
}

// record applies one outcome to the state machine. Caller holds the lock.
func (cb *CircuitBreaker) record(success bool) {
	if !success {
		cb.failures++
		cb.lastFailure = time.Now()
		switch cb.state {
		case CBClosed:
			if cb.failures >= cb.cfg.FailureThreshold {
				cb.state = CBOpen
				cb.successes = 0
			}
		case CBHalfOpen:
			// failed probe: back to cooldown
			cb.state = CBOpen
			cb.failures = 0
		}
		return
	}

	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}
