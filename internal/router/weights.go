package router

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/llm-router/router/internal/storage"
	"github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/types"
)

// WeightManager chooses one active provider by weighted-random sampling,
// honoring an optional preference. It re-reads the registry on every call;
// weights and activity flags may be changed externally at any time.
type WeightManager struct {
	registry storage.RegistryLookup

	randMu sync.Mutex
	randFn func() float64 // returns uniform [0,1); swapped out by tests
}

// NewWeightManager creates a weight manager backed by the given registry.
func NewWeightManager(registry storage.RegistryLookup) *WeightManager {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &WeightManager{
		registry: registry,
		randFn:   rng.Float64,
	}
}

// SelectProvider picks one active provider. If preferred is non-empty and
// active it is returned deterministically, bypassing the weighted draw.
// Returns errors.NoProviderAvailable when no active provider exists.
func (w *WeightManager) SelectProvider(ctx context.Context, preferred types.ProviderID) (types.ProviderID, error) {
	infos, err := w.registry.FindActiveProviders(ctx)
	if err != nil {
		return "", err
	}

	// Keep active rows; on duplicate ids keep the highest weight.
	weights := make(map[types.ProviderID]float64)
	for _, info := range infos {
		if !info.IsActive {
			continue
		}
		if existing, ok := weights[info.ID]; !ok || info.Weight > existing {
			weights[info.ID] = info.Weight
		}
	}

	if len(weights) == 0 {
		return "", errors.NoProviderAvailable
	}

	if preferred != "" {
		if _, ok := weights[preferred]; ok {
			return preferred, nil
		}
	}

	// Fixed enumeration order makes the walk deterministic for a given draw.
	candidates := make([]types.ProviderID, 0, len(weights))
	var totalWeight float64
	for _, id := range types.AllProviders() {
		if weight, ok := weights[id]; ok {
			candidates = append(candidates, id)
			totalWeight += weight
		}
	}

	if totalWeight <= 0 {
		// All weights zero: nothing to draw from, fall back to list order.
		return candidates[0], nil
	}

	w.randMu.Lock()
	r := w.randFn() * totalWeight
	w.randMu.Unlock()

	for _, id := range candidates {
		r -= weights[id]
		if r <= 0 {
			return id, nil
		}
	}

	// Floating-point error exhausted the walk; the last candidate is the
	// deterministic fallback. A non-empty set never yields "none".
	return candidates[len(candidates)-1], nil
}
