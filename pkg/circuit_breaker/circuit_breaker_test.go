package circuit_breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/bookworm-app/bookworm/pkg/circuit_breaker"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	t.Parallel()
	cb := circuit_breaker.New(4, time.Minute, 0.5, 2)

	failing := func() error { return errors.New("service error") }

	for i := 0; i < 2; i++ {
		require.Error(t, cb.Call(failing))
	}
	// Failure share reached the threshold, next call fails fast.
	err := cb.Call(func() error { return nil })
	require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	t.Parallel()
	cb := circuit_breaker.New(2, 50*time.Millisecond, 0.5, 1)

	require.Error(t, cb.Call(func() error { return errors.New("boom") }))
	require.ErrorIs(t, cb.Call(func() error { return nil }), circuit_breaker.ErrOpenCB)

	time.Sleep(100 * time.Millisecond)

	// HALFOPEN probes succeed and the breaker closes again.
	require.NoError(t, cb.Call(func() error { return nil }))
	require.NoError(t, cb.Call(func() error { return nil }))
	require.NoError(t, cb.Call(func() error { return nil }))
}

func TestCircuitBreaker_BusinessErrorsDoNotTrip(t *testing.T) {
	t.Parallel()
	cb := circuit_breaker.New(2, time.Minute, 0.5, 1)

	// nil results never open the breaker.
	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Call(func() error { return nil }))
	}
}
