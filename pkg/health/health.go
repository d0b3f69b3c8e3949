package health

import (
	"context"
	"fmt"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const defaultCheckTimeout = 5 * time.Second

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type registration struct {
	checker  Checker
	critical bool
}

type CheckerRegistry struct {
	checkers []registration
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{
		checkers: make([]registration, 0),
	}
}

// Register adds a checker whose failure makes the service unhealthy.
func (r *CheckerRegistry) Register(checker Checker) {
	r.checkers = append(r.checkers, registration{checker: checker, critical: true})
}

// RegisterOptional adds a checker whose failure only degrades the service.
// Mail relays are optional: a form that cannot deliver still answers.
func (r *CheckerRegistry) RegisterOptional(checker Checker) {
	r.checkers = append(r.checkers, registration{checker: checker})
}

func (r *CheckerRegistry) Check(ctx context.Context) Health {
	results := make(map[string]CheckResult)
	allHealthy := true
	anyDegraded := false

	for _, reg := range r.checkers {
		err := reg.checker.Check(ctx)
		result := CheckResult{
			Timestamp: time.Now(),
		}

		switch {
		case err == nil:
			result.Status = StatusHealthy
		case reg.critical:
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			allHealthy = false
		default:
			result.Status = StatusDegraded
			result.Message = err.Error()
			anyDegraded = true
		}

		results[reg.checker.Name()] = result
	}

	overallStatus := StatusHealthy
	if !allHealthy {
		overallStatus = StatusUnhealthy
	} else if anyDegraded {
		overallStatus = StatusDegraded
	}

	return Health{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// Pinger is anything that can cheaply prove a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingChecker struct {
	name   string
	pinger Pinger
}

func NewPingChecker(name string, pinger Pinger) *PingChecker {
	return &PingChecker{name: name, pinger: pinger}
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultCheckTimeout)
	defer cancel()

	if err := c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", c.name, err)
	}
	return nil
}
