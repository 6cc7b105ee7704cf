package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrCircuitOpen is returned while a provider is being skipped after
// repeated failures
var ErrCircuitOpen = errors.New("assistant provider temporarily unavailable")

// BreakerState represents the circuit breaker state
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes the circuit breaker. Zero values use the defaults.
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive failures that open the circuit (5)
	SuccessThreshold uint32        // half-open successes that close it again (2)
	Timeout          time.Duration // how long the circuit stays open (30s)
}

// CircuitBreaker wraps a Provider and stops calling it after repeated
// failures until Timeout has passed.
type CircuitBreaker struct {
	Provider

	failureThreshold uint32
	successThreshold uint32
	timeout          time.Duration
	logger           *logrus.Logger
	now              func() time.Time

	mu          sync.Mutex
	failures    uint32
	successes   uint32
	lastFailure time.Time
	state       BreakerState
}

// WithCircuitBreaker guards p with a circuit breaker
func WithCircuitBreaker(p Provider, cfg BreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CircuitBreaker{
		Provider:         p,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		timeout:          cfg.Timeout,
		logger:           logger,
		now:              time.Now,
		state:            StateClosed,
	}
}

// Complete calls the wrapped provider unless the circuit is open
func (b *CircuitBreaker) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if b.State() == StateOpen {
		return nil, ErrCircuitOpen
	}

	resp, err := b.Provider.Complete(ctx, req)
	// A caller giving up is not the provider's fault
	if err != nil && ctx.Err() == nil {
		b.recordFailure()
	} else if err == nil {
		b.recordSuccess()
	}
	return resp, err
}

// State returns the current state, moving Open to HalfOpen once the
// timeout has passed
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.lastFailure) > b.timeout {
		b.state = StateHalfOpen
		b.failures = 0
		b.successes = 0
	}
	return b.state
}

// Reset closes the circuit
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.logger.WithFields(logrus.Fields{
				"provider": b.Name(),
				"failures": b.failures,
			}).Warn("Opening circuit breaker")
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.logger.WithField("provider", b.Name()).Warn("Re-opening circuit breaker after failure in half-open state")
	}
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
			b.logger.WithField("provider", b.Name()).Info("Closing circuit breaker")
		}
	}
}
