package http

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed is the normal state where requests are allowed.
	CircuitClosed CircuitState = iota
	// CircuitOpen is the state where requests fail fast.
	CircuitOpen
	// CircuitHalfOpen allows a limited number of probe requests.
	CircuitHalfOpen
)

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

const (
	DefaultFailureThreshold    = 5
	DefaultRecoveryTimeout     = 30 * time.Second
	DefaultHalfOpenMaxRequests = 1
)

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	FailureThreshold    int
	RecoveryTimeout     time.Duration
	HalfOpenMaxRequests int
	// IsTransientError decides whether an error counts toward opening the
	// circuit. If nil, all errors count.
	IsTransientError func(error) bool
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:    DefaultFailureThreshold,
		RecoveryTimeout:     DefaultRecoveryTimeout,
		HalfOpenMaxRequests: DefaultHalfOpenMaxRequests,
	}
}

type circuit struct {
	state             CircuitState
	consecutiveErrors int
	lastStateChange   time.Time
	halfOpenRequests  int
}

// CircuitBreaker tracks failures per host and fails fast once a host has
// produced too many consecutive transient failures.
type CircuitBreaker struct {
	mu       sync.Mutex
	circuits map[string]*circuit
	config   CircuitBreakerConfig
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = DefaultHalfOpenMaxRequests
	}
	return &CircuitBreaker{
		circuits: make(map[string]*circuit),
		config:   cfg,
	}
}

// Allow returns ErrCircuitOpen if requests to domain should fail fast.
func (cb *CircuitBreaker) Allow(domain string) error {
	if cb == nil {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(domain)
	switch c.state {
	case CircuitOpen:
		if time.Since(c.lastStateChange) >= cb.config.RecoveryTimeout {
			c.state = CircuitHalfOpen
			c.lastStateChange = time.Now()
			c.halfOpenRequests = 1
			return nil
		}
		return ErrCircuitOpen
	case CircuitHalfOpen:
		if c.halfOpenRequests < cb.config.HalfOpenMaxRequests {
			c.halfOpenRequests++
			return nil
		}
		return ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess closes a half-open circuit and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess(domain string) {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(domain)
	if c.state == CircuitHalfOpen {
		c.state = CircuitClosed
		c.lastStateChange = time.Now()
		c.halfOpenRequests = 0
	}
	c.consecutiveErrors = 0
}

// RecordFailure counts a failure; the circuit opens at the threshold.
func (cb *CircuitBreaker) RecordFailure(domain string, err error) {
	if cb == nil {
		return
	}
	if cb.config.IsTransientError != nil && !cb.config.IsTransientError(err) {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(domain)
	switch c.state {
	case CircuitClosed:
		c.consecutiveErrors++
		if c.consecutiveErrors >= cb.config.FailureThreshold {
			c.state = CircuitOpen
			c.lastStateChange = time.Now()
		}
	case CircuitHalfOpen:
		c.state = CircuitOpen
		c.lastStateChange = time.Now()
		c.consecutiveErrors++
	}
}

// State returns the current state of the circuit for a domain.
func (cb *CircuitBreaker) State(domain string) CircuitState {
	if cb == nil {
		return CircuitClosed
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[domain]
	if !ok {
		return CircuitClosed
	}
	if c.state == CircuitOpen && time.Since(c.lastStateChange) >= cb.config.RecoveryTimeout {
		return CircuitHalfOpen
	}
	return c.state
}

// must be called with cb.mu held
func (cb *CircuitBreaker) get(domain string) *circuit {
	c, ok := cb.circuits[domain]
	if !ok {
		c = &circuit{state: CircuitClosed, lastStateChange: time.Now()}
		cb.circuits[domain] = c
	}
	return c
}

// IsTransientHTTPError reports whether err should count against a host's
// circuit. 4xx responses other than 429 are permanent and do not.
func IsTransientHTTPError(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == 429
	}

	return true
}
