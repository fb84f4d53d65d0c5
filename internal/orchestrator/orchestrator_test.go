package orchestrator

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-router/router/internal/intent"
	"github.com/llm-router/router/internal/router"
	"github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/types"
	"github.com/llm-router/router/pkg/utils"
)

type fakeRegistry struct {
	infos []types.ProviderInfo
}

func (f *fakeRegistry) FindActiveProviders(ctx context.Context) ([]types.ProviderInfo, error) {
	return f.infos, nil
}

type fakeCaller struct {
	mu        sync.Mutex
	responses map[types.ProviderID]string
	errs      map[types.ProviderID]error
	calls     map[types.ProviderID]int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		responses: make(map[types.ProviderID]string),
		errs:      make(map[types.ProviderID]error),
		calls:     make(map[types.ProviderID]int),
	}
}

func (f *fakeCaller) Call(ctx context.Context, id types.ProviderID, messages []types.Message, opts *types.CallOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if err, ok := f.errs[id]; ok {
		return "", err
	}
	return f.responses[id], nil
}

func (f *fakeCaller) callCount(id types.ProviderID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeCaller) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	text, found := c.entries[key]
	return text, found, nil
}

func (c *fakeCache) Set(ctx context.Context, key, text string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = text
	c.ttls[key] = ttl
	return nil
}

func activeProvider(id types.ProviderID, weight float64) types.ProviderInfo {
	return types.ProviderInfo{ID: id, Weight: weight, IsActive: true, APIKey: "k", KeyGeneration: 1}
}

func newTestOrchestrator(registry *fakeRegistry, caller *fakeCaller, cache *fakeCache) *Orchestrator {
	logger := utils.NewNopLogger()
	rt := router.NewRouter(
		intent.NewClassifier(),
		router.NewWeightManager(registry),
		router.NewBreakerRegistry(router.DefaultBreakerSettings()),
		caller,
		logger,
	)
	return New(rt, caller, cache, time.Hour, logger)
}

func userMessages(text string) []types.Message {
	return []types.Message{{Role: "user", Content: text}}
}

func TestRespondCacheHitSkipsProviders(t *testing.T) {
	caller := newFakeCaller()
	cache := newFakeCache()
	orch := newTestOrchestrator(&fakeRegistry{}, caller, cache)

	prompt := "what is the weather like"
	cache.entries[utils.Fingerprint(prompt)] = "cached answer"

	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)
	require.NoError(t, err)
	assert.Equal(t, "cached answer", text)
	assert.Equal(t, 0, caller.totalCalls(), "a cache hit must not contact any provider")
}

func TestRespondSuccessPopulatesCache(t *testing.T) {
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
	}}
	caller := newFakeCaller()
	caller.responses[types.ProviderOpenAI] = "fresh answer"
	cache := newFakeCache()
	orch := newTestOrchestrator(registry, caller, cache)

	prompt := "tell me something"
	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)
	require.NoError(t, err)
	assert.Equal(t, "fresh answer", text)

	key := utils.Fingerprint(prompt)
	assert.Equal(t, "fresh answer", cache.entries[key])
	assert.Equal(t, time.Hour, cache.ttls[key])
}

func TestRespondSecondIdenticalRequestIsCached(t *testing.T) {
	// Three providers, weights {10, 0, 0}: selection is deterministic.
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
		activeProvider(types.ProviderClaude, 0),
		activeProvider(types.ProviderGemini, 0),
	}}
	caller := newFakeCaller()
	caller.responses[types.ProviderOpenAI] = "the answer"
	cache := newFakeCache()
	orch := newTestOrchestrator(registry, caller, cache)

	prompt := "deterministic routing please"

	first, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)
	require.NoError(t, err)
	assert.Equal(t, "the answer", first)
	require.Equal(t, 1, caller.callCount(types.ProviderOpenAI))

	second, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)
	require.NoError(t, err)
	assert.Equal(t, "the answer", second)
	assert.Equal(t, 1, caller.totalCalls(), "second identical request must add zero provider invocations")
}

func TestRespondTotalFailure(t *testing.T) {
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
	}}
	caller := newFakeCaller()
	for _, id := range types.AllProviders() {
		caller.errs[id] = stderrors.New("down")
	}
	cache := newFakeCache()
	orch := newTestOrchestrator(registry, caller, cache)

	prompt := "anyone home?"
	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)

	assert.Empty(t, text)
	assert.ErrorIs(t, err, errors.AllProvidersFailed)

	// The routed provider was attempted once through the breaker and is
	// excluded from fallback; every other provider was tried exactly once.
	for _, id := range types.AllProviders() {
		assert.Equal(t, 1, caller.callCount(id), "provider %s", id)
	}
	assert.Empty(t, cache.entries)
}

func TestRespondFallbackAfterRoutedFailure(t *testing.T) {
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
	}}
	caller := newFakeCaller()
	caller.errs[types.ProviderOpenAI] = stderrors.New("down")
	caller.errs[types.ProviderClaude] = stderrors.New("down")
	caller.responses[types.ProviderGemini] = "rescued"
	cache := newFakeCache()
	orch := newTestOrchestrator(registry, caller, cache)

	prompt := "please answer"
	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)
	require.NoError(t, err)
	assert.Equal(t, "rescued", text)

	// Fallback walks the enumeration in order and stops at the first
	// non-empty response.
	assert.Equal(t, 1, caller.callCount(types.ProviderClaude))
	assert.Equal(t, 1, caller.callCount(types.ProviderGemini))
	assert.Equal(t, 0, caller.callCount(types.ProviderMistral))
	assert.Equal(t, 0, caller.callCount(types.ProviderCohere))

	// Fallback successes are cached like routed ones.
	assert.Equal(t, "rescued", cache.entries[utils.Fingerprint(prompt)])
}

func TestRespondFallbackSubset(t *testing.T) {
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
	}}
	caller := newFakeCaller()
	caller.errs[types.ProviderOpenAI] = stderrors.New("down")
	caller.responses[types.ProviderCohere] = "subset answer"
	cache := newFakeCache()
	orch := newTestOrchestrator(registry, caller, cache)

	opts := &types.RespondOptions{
		FallbackProviders: []types.ProviderID{types.ProviderCohere},
	}

	prompt := "subset fallback"
	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, opts)
	require.NoError(t, err)
	assert.Equal(t, "subset answer", text)

	assert.Equal(t, 0, caller.callCount(types.ProviderClaude))
	assert.Equal(t, 0, caller.callCount(types.ProviderGemini))
	assert.Equal(t, 1, caller.callCount(types.ProviderCohere))
}

func TestRespondEmptyFallbackResponseContinues(t *testing.T) {
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
	}}
	caller := newFakeCaller()
	caller.errs[types.ProviderOpenAI] = stderrors.New("down")
	// claude answers successfully but with empty text; mistral has the goods.
	caller.responses[types.ProviderClaude] = ""
	caller.errs[types.ProviderGemini] = stderrors.New("down")
	caller.responses[types.ProviderMistral] = "non-empty"
	cache := newFakeCache()
	orch := newTestOrchestrator(registry, caller, cache)

	prompt := "skip empties"
	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)
	require.NoError(t, err)
	assert.Equal(t, "non-empty", text)
}

func TestRespondCacheErrorDegradesToMiss(t *testing.T) {
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
	}}
	caller := newFakeCaller()
	caller.responses[types.ProviderOpenAI] = "still works"
	cache := newFakeCache()
	cache.getErr = stderrors.New("redis down")
	orch := newTestOrchestrator(registry, caller, cache)

	prompt := "degraded cache"
	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, nil)
	require.NoError(t, err)
	assert.Equal(t, "still works", text)
}

func TestRespondMultiProviderModeIsNoOp(t *testing.T) {
	registry := &fakeRegistry{infos: []types.ProviderInfo{
		activeProvider(types.ProviderOpenAI, 10),
	}}
	caller := newFakeCaller()
	caller.responses[types.ProviderOpenAI] = "single"
	orch := newTestOrchestrator(registry, caller, newFakeCache())

	prompt := "multi mode"
	opts := &types.RespondOptions{UseMultipleProviders: true}

	text, err := orch.Respond(context.Background(), userMessages(prompt), prompt, opts)
	require.NoError(t, err)
	assert.Equal(t, "single", text)
	assert.Equal(t, 1, caller.totalCalls())
}
