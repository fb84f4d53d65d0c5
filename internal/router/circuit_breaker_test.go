package router

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/types"
)

func failing() (string, error) {
	return "", fmt.Errorf("upstream unavailable")
}

func succeeding() (string, error) {
	return "ok", nil
}

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultBreakerSettings())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerTripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(BreakerSettings{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(failing, nil)
		require.Error(t, err)
		assert.Equal(t, StateClosed, cb.State(), "breaker must stay closed below threshold")
	}

	_, err := cb.Execute(failing, nil)
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())

	// Once open, the primary is never attempted.
	calls := 0
	_, err = cb.Execute(func() (string, error) {
		calls++
		return "", nil
	}, nil)
	assert.ErrorIs(t, err, pkgerrors.CircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(BreakerSettings{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(failing, nil)
		require.Error(t, err)
	}

	_, err := cb.Execute(succeeding, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cb.Stats().FailureCount)

	// Two more failures must not trip after the reset.
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(failing, nil)
		require.Error(t, err)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(BreakerSettings{FailureThreshold: 2, ResetTimeout: 20 * time.Millisecond})

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(failing, nil)
		require.Error(t, err)
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	// First trial after the reset timeout: half-open, one success.
	result, err := cb.Execute(succeeding, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateHalfOpen, cb.State())

	// Second consecutive success closes the circuit.
	_, err = cb.Execute(succeeding, nil)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Stats().FailureCount)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(BreakerSettings{FailureThreshold: 2, ResetTimeout: 20 * time.Millisecond})

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(failing, nil)
		require.Error(t, err)
	}

	time.Sleep(30 * time.Millisecond)

	_, err := cb.Execute(failing, nil)
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())

	// lastFailure was refreshed, so the circuit rejects immediately again.
	calls := 0
	_, err = cb.Execute(func() (string, error) {
		calls++
		return "ok", nil
	}, nil)
	assert.ErrorIs(t, err, pkgerrors.CircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestCircuitBreakerFallback(t *testing.T) {
	t.Run("PrimaryFailureUsesFallback", func(t *testing.T) {
		cb := NewCircuitBreaker(DefaultBreakerSettings())
		result, err := cb.Execute(failing, func() (string, error) {
			return "from-fallback", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "from-fallback", result)
	})

	t.Run("OpenCircuitUsesFallback", func(t *testing.T) {
		cb := NewCircuitBreaker(BreakerSettings{FailureThreshold: 1, ResetTimeout: time.Minute})
		_, err := cb.Execute(failing, nil)
		require.Error(t, err)
		require.Equal(t, StateOpen, cb.State())

		result, err := cb.Execute(failing, func() (string, error) {
			return "from-fallback", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "from-fallback", result)
	})

	t.Run("FallbackErrorPropagates", func(t *testing.T) {
		cb := NewCircuitBreaker(DefaultBreakerSettings())
		_, err := cb.Execute(failing, func() (string, error) {
			return "", fmt.Errorf("fallback also broken")
		})
		assert.EqualError(t, err, "fallback also broken")
	})
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(BreakerSettings{FailureThreshold: 1, ResetTimeout: time.Hour})

	_, err := cb.Execute(failing, nil)
	require.Error(t, err)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()

	assert.Equal(t, StateClosed, cb.State())
	stats := cb.Stats()
	assert.Equal(t, 0, stats.FailureCount)
	assert.Equal(t, 0, stats.SuccessCount)
	assert.True(t, stats.LastFailureTime.IsZero())
}

func TestCircuitBreakerConcurrentFailures(t *testing.T) {
	cb := NewCircuitBreaker(BreakerSettings{FailureThreshold: 5, ResetTimeout: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cb.Execute(failing, nil)
		}()
	}
	wg.Wait()

	// No lost transition: with 20 concurrent failures the threshold
	// crossing must have been observed.
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerRegistry(t *testing.T) {
	registry := NewBreakerRegistry(BreakerSettings{FailureThreshold: 2, ResetTimeout: time.Minute})

	t.Run("LazyCreationReturnsSameInstance", func(t *testing.T) {
		first := registry.Get(types.ProviderOpenAI)
		second := registry.Get(types.ProviderOpenAI)
		assert.Same(t, first, second)
	})

	t.Run("PerProviderIsolation", func(t *testing.T) {
		openai := registry.Get(types.ProviderOpenAI)
		claude := registry.Get(types.ProviderClaude)

		for i := 0; i < 2; i++ {
			_, _ = openai.Execute(failing, nil)
		}

		assert.Equal(t, StateOpen, openai.State())
		assert.Equal(t, StateClosed, claude.State(), "one provider's failures must not trip another's breaker")
	})

	t.Run("ConcurrentGet", func(t *testing.T) {
		fresh := NewBreakerRegistry(DefaultBreakerSettings())
		results := make([]*CircuitBreaker, 10)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				results[n] = fresh.Get(types.ProviderGemini)
			}(i)
		}
		wg.Wait()

		for _, cb := range results[1:] {
			assert.Same(t, results[0], cb)
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		snapshot := registry.Snapshot()
		require.Contains(t, snapshot, types.ProviderOpenAI)
		assert.Equal(t, StateOpen, snapshot[types.ProviderOpenAI].State)
	})
}
