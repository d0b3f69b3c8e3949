package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestCheckerRegistry_AllHealthy(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(NewPingChecker("a", pingFunc(ok)))
	r.RegisterOptional(NewPingChecker("smtp", pingFunc(ok)))

	h := r.Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Len(t, h.Checks, 2)
}

func TestCheckerRegistry_OptionalFailureDegrades(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(NewPingChecker("a", pingFunc(ok)))
	r.RegisterOptional(NewPingChecker("smtp", pingFunc(down)))

	h := r.Check(context.Background())
	assert.Equal(t, StatusDegraded, h.Status)
	assert.Equal(t, StatusDegraded, h.Checks["smtp"].Status)
	assert.Contains(t, h.Checks["smtp"].Message, "smtp ping failed")
}

func TestCheckerRegistry_CriticalFailure(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(NewPingChecker("a", pingFunc(down)))
	r.RegisterOptional(NewPingChecker("smtp", pingFunc(down)))

	h := r.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, h.Status)
}

func TestCheckerRegistry_Empty(t *testing.T) {
	h := NewCheckerRegistry().Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Empty(t, h.Checks)
}
