package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(breaker bool) Config {
	return Config{
		RetryMaxAttempts:        3,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         2 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          breaker,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func TestExecuteRetriesRetryableFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(false))

	attempts := 0
	errTemp := errors.New("no servers")
	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(false))

	attempts := 0
	errPermanent := errors.New("bad subject")
	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		attempts++
		return errPermanent
	}, nil)

	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}

func TestExecuteHonoursCanceledContext(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "nats.publish", func(context.Context) error {
		called = true
		return nil
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestExecuteOpensCircuitAndNotifiesObserver(t *testing.T) {
	cfg := fastRetryConfig(true)
	cfg.RetryMaxAttempts = 1

	var transitions []gobreaker.State
	exec := NewExecutor(cfg, WithStateObserver(func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}))

	errDown := errors.New("down")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
			return errDown
		}, nil)
		require.ErrorIs(t, err, errDown)
	}

	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		t.Fatal("operation must not run while the circuit is open")
		return nil
	}, nil)

	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, gobreaker.StateOpen, exec.State("nats.publish"))
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
	assert.Equal(t, gobreaker.StateClosed, exec.State("never.used"))
}
