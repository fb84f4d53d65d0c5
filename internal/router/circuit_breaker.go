// Package router implements provider selection and failure isolation
package router

import (
	"sync"
	"time"

	"github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/types"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// String returns a string representation of the circuit state
func (s CircuitState) String() string {
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

// MarshalJSON implements json.Marshaler for CircuitState
func (s CircuitState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// halfOpenSuccesses is the number of consecutive trial successes required
// to close a half-open circuit.
const halfOpenSuccesses = 2

// BreakerSettings configures a single circuit breaker.
type BreakerSettings struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	// MonitoringPeriod is stored for registry parity and reported in stats;
	// no transition currently depends on it.
	MonitoringPeriod time.Duration
}

// DefaultBreakerSettings returns the standard per-provider settings.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
		MonitoringPeriod: 60 * time.Second,
	}
}

// CallFunc is a unit of work guarded by a circuit breaker.
type CallFunc func() (string, error)

// CircuitBreaker isolates a single provider so requests are not dispatched
// to a provider in sustained failure, and recovery is tested safely.
//
// All read-modify-write of the counters and state happens under the mutex;
// two concurrent failures on the same provider cannot both observe
// failureCount == threshold-1 and miss the threshold crossing.
type CircuitBreaker struct {
	settings BreakerSettings

	mu           sync.Mutex
	state        CircuitState
	failureCount int
	successCount int // consecutive successes while half-open only
	lastFailure  time.Time
}

// NewCircuitBreaker creates a new circuit breaker. Zero-valued settings
// fields fall back to the defaults.
func NewCircuitBreaker(settings BreakerSettings) *CircuitBreaker {
	defaults := DefaultBreakerSettings()
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = defaults.FailureThreshold
	}
	if settings.ResetTimeout <= 0 {
		settings.ResetTimeout = defaults.ResetTimeout
	}
	if settings.MonitoringPeriod <= 0 {
		settings.MonitoringPeriod = defaults.MonitoringPeriod
	}

	return &CircuitBreaker{
		settings: settings,
		state:    StateClosed,
	}
}

// Execute runs primary through the breaker. On success the result is
// returned and the success transition applied. On failure the failure
// transition is applied and, if fallback is non-nil, the fallback's result
// is returned instead of the primary's error; the fallback's own error does
// propagate. When the circuit is open and the reset timeout has not elapsed,
// primary is never attempted.
func (cb *CircuitBreaker) Execute(primary, fallback CallFunc) (string, error) {
	if !cb.admit() {
		if fallback != nil {
			return fallback()
		}
		return "", errors.CircuitOpen
	}

	result, err := primary()
	if err != nil {
		cb.recordFailure()
		if fallback != nil {
			return fallback()
		}
		return "", err
	}

	cb.recordSuccess()
	return result, nil
}

// admit decides whether the next call may reach the provider, applying the
// open-to-half-open transition when the reset timeout has elapsed.
func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.settings.ResetTimeout {
			cb.state = StateHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case StateHalfOpen:
		// One trial per invocation.
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= halfOpenSuccesses {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.settings.FailureThreshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		// Any failure during probing reopens immediately.
		cb.state = StateOpen
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed with all counters zeroed. Administrative
// override; not exercised by the normal request flow.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
	cb.lastFailure = time.Time{}
}

// BreakerStats is a read-only snapshot of one breaker.
type BreakerStats struct {
	State            CircuitState  `json:"state"`
	FailureCount     int           `json:"failure_count"`
	SuccessCount     int           `json:"success_count"`
	LastFailureTime  time.Time     `json:"last_failure_time"`
	FailureThreshold int           `json:"failure_threshold"`
	ResetTimeout     time.Duration `json:"reset_timeout"`
	MonitoringPeriod time.Duration `json:"monitoring_period"`
}

// Stats returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerStats{
		State:            cb.state,
		FailureCount:     cb.failureCount,
		SuccessCount:     cb.successCount,
		LastFailureTime:  cb.lastFailure,
		FailureThreshold: cb.settings.FailureThreshold,
		ResetTimeout:     cb.settings.ResetTimeout,
		MonitoringPeriod: cb.settings.MonitoringPeriod,
	}
}

// BreakerRegistry holds one breaker per provider id, created lazily on
// first use and retained for the process lifetime. The registry lock only
// guards the map; each breaker serializes its own transitions, so unrelated
// providers never contend.
type BreakerRegistry struct {
	settings BreakerSettings

	mu       sync.RWMutex
	breakers map[types.ProviderID]*CircuitBreaker
}

// NewBreakerRegistry creates a registry whose breakers default to settings.
func NewBreakerRegistry(settings BreakerSettings) *BreakerRegistry {
	return &BreakerRegistry{
		settings: settings,
		breakers: make(map[types.ProviderID]*CircuitBreaker),
	}
}

// Get returns the breaker for the provider, creating it on first reference.
func (r *BreakerRegistry) Get(id types.ProviderID) *CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[id]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check: another goroutine may have created it meanwhile.
	if cb, ok := r.breakers[id]; ok {
		return cb
	}
	cb = NewCircuitBreaker(r.settings)
	r.breakers[id] = cb
	return cb
}

// Snapshot returns the stats of every breaker created so far.
func (r *BreakerRegistry) Snapshot() map[types.ProviderID]BreakerStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[types.ProviderID]BreakerStats, len(r.breakers))
	for id, cb := range r.breakers {
		out[id] = cb.Stats()
	}
	return out
}
