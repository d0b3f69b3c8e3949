package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pentamaths/internal/config"
)

var errUpstream = errors.New("upstream down")

func failing() (interface{}, error) { return nil, errUpstream }

func TestWrapper_TripsAfterFailures(t *testing.T) {
	w := NewWrapper(FromConfig("test-trip", config.CircuitBreakerConfig{
		FailureRatio: 0.5,
		MinRequests:  2,
		Timeout:      time.Minute,
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := w.ExecuteWithContext(ctx, failing)
		require.ErrorIs(t, err, errUpstream)
	}

	assert.True(t, w.IsOpen())

	called := false
	_, err := w.ExecuteWithContext(ctx, func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.False(t, called)
	assert.True(t, IsRejection(err))
}

func TestWrapper_PassesResult(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-pass"))

	result, err := w.ExecuteWithContext(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, gobreaker.StateClosed, w.State())
	assert.Equal(t, "test-pass", w.Name())
}

func TestWrapper_CancelledContext(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-cancel"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.ExecuteWithContext(ctx, failing)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, w.Counts().Requests)
}

func TestFromConfig_KeepsDefaults(t *testing.T) {
	c := FromConfig("x", config.CircuitBreakerConfig{})
	d := DefaultConfig("x")
	assert.Equal(t, d.MaxRequests, c.MaxRequests)
	assert.Equal(t, d.Timeout, c.Timeout)
	assert.False(t, c.ReadyToTrip(gobreaker.Counts{Requests: 1, TotalFailures: 1}))
}
