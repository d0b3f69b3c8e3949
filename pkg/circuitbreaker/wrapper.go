package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"pentamaths/internal/config"
	"pentamaths/pkg/metrics"
)

// Config defines circuit breaker configuration
type Config struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: ratioTrip(5, 0.5),
	}
}

// FromConfig builds a named breaker configuration from the service settings.
func FromConfig(name string, cfg config.CircuitBreakerConfig) Config {
	c := DefaultConfig(name)
	if cfg.MaxRequests > 0 {
		c.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		c.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 {
		c.ReadyToTrip = ratioTrip(cfg.MinRequests, cfg.FailureRatio)
	}
	return c
}

func ratioTrip(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 || counts.Requests < minRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

// Wrapper wraps a function with circuit breaker logic
type Wrapper struct {
	cb *gobreaker.CircuitBreaker
}

func NewWrapper(cfg Config) *Wrapper {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
	}

	if cfg.ReadyToTrip != nil {
		settings.ReadyToTrip = cfg.ReadyToTrip
	}

	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		updateCircuitBreakerMetrics(name, to)
		if cfg.OnStateChange != nil {
			cfg.OnStateChange(name, from, to)
		}
	}

	cb := gobreaker.NewCircuitBreaker(settings)

	updateCircuitBreakerMetrics(cfg.Name, cb.State())

	return &Wrapper{
		cb: cb,
	}
}

// ExecuteWithContext runs fn unless ctx is already done or the breaker is open.
func (w *Wrapper) ExecuteWithContext(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := w.cb.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			return fn()
		}
	})

	w.recordRequest(err)
	return result, err
}

func (w *Wrapper) State() gobreaker.State {
	return w.cb.State()
}

func (w *Wrapper) Counts() gobreaker.Counts {
	return w.cb.Counts()
}

func (w *Wrapper) Name() string {
	return w.cb.Name()
}

func (w *Wrapper) IsOpen() bool {
	return w.cb.State() == gobreaker.StateOpen
}

// IsRejection reports whether err came from the breaker itself rather than
// from the wrapped call.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func updateCircuitBreakerMetrics(name string, state gobreaker.State) {
	var stateValue float64
	switch state {
	case gobreaker.StateClosed:
		stateValue = 0
	case gobreaker.StateHalfOpen:
		stateValue = 1
	case gobreaker.StateOpen:
		stateValue = 2
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}

func (w *Wrapper) recordRequest(err error) {
	metrics.CircuitBreakerRequests.WithLabelValues(w.cb.Name(), w.cb.State().String()).Inc()
	if err != nil && !IsRejection(err) {
		metrics.CircuitBreakerFailures.WithLabelValues(w.cb.Name()).Inc()
	}
}
