package providers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/llm-router/router/internal/storage"
	"github.com/llm-router/router/pkg/types"
	"github.com/llm-router/router/pkg/utils"
)

// Upstream implements Caller over the fixed provider enumeration. Clients
// are cached per provider and rebuilt only when the registry row's key
// generation changes, so a credential rotation invalidates the connection
// without restarting the process.
type Upstream struct {
	registry   storage.RegistryLookup
	logger     *utils.Logger
	httpClient *http.Client

	mu      sync.Mutex
	clients map[types.ProviderID]*cachedClient
}

type cachedClient struct {
	generation int64
	client     chatClient
}

// NewUpstream creates the upstream caller. The HTTP client is shared across
// providers; per-call deadlines come from the request context.
func NewUpstream(registry storage.RegistryLookup, logger *utils.Logger) *Upstream {
	return &Upstream{
		registry: registry,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		clients: make(map[types.ProviderID]*cachedClient),
	}
}

// Call looks up the provider's current registry row, obtains a client for
// its credential generation, and performs the chat call.
func (u *Upstream) Call(ctx context.Context, id types.ProviderID, messages []types.Message, opts *types.CallOptions) (string, error) {
	if !id.Valid() {
		return "", fmt.Errorf("unknown provider id: %s", id)
	}

	info, err := u.lookup(ctx, id)
	if err != nil {
		return "", err
	}

	client, err := u.clientFor(info)
	if err != nil {
		return "", err
	}

	start := time.Now()
	u.logger.LogProviderCall(id, "", start)
	text, err := client.Chat(ctx, messages, opts)
	u.logger.LogProviderResult(id, "", time.Since(start), err)
	return text, err
}

func (u *Upstream) lookup(ctx context.Context, id types.ProviderID) (types.ProviderInfo, error) {
	infos, err := u.registry.FindActiveProviders(ctx)
	if err != nil {
		return types.ProviderInfo{}, fmt.Errorf("registry lookup: %w", err)
	}

	// Duplicate rows keep the highest key generation (the freshest credential).
	var found *types.ProviderInfo
	for i := range infos {
		if infos[i].ID != id {
			continue
		}
		if found == nil || infos[i].KeyGeneration > found.KeyGeneration {
			found = &infos[i]
		}
	}
	if found == nil {
		return types.ProviderInfo{}, fmt.Errorf("provider %s is not configured or inactive", id)
	}
	return *found, nil
}

// clientFor returns the cached client for the provider, rebuilding it when
// the credential generation has moved.
func (u *Upstream) clientFor(info types.ProviderInfo) (chatClient, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if cached, ok := u.clients[info.ID]; ok && cached.generation == info.KeyGeneration {
		return cached.client, nil
	}

	client, err := u.newClient(info)
	if err != nil {
		return nil, err
	}

	u.clients[info.ID] = &cachedClient{
		generation: info.KeyGeneration,
		client:     client,
	}
	u.logger.WithProvider(info.ID).
		WithField("key_generation", info.KeyGeneration).
		WithField("api_key", utils.MaskAPIKey(info.APIKey)).
		Debug("Rebuilt upstream client")

	return client, nil
}

// newClient is the single dispatch point over the closed provider
// enumeration.
func (u *Upstream) newClient(info types.ProviderInfo) (chatClient, error) {
	switch info.ID {
	case types.ProviderOpenAI:
		return newOpenAIClient(info, u.httpClient), nil
	case types.ProviderClaude:
		return newClaudeClient(info, u.httpClient), nil
	case types.ProviderGemini:
		return newGeminiClient(info, u.httpClient), nil
	case types.ProviderMistral:
		return newMistralClient(info, u.httpClient), nil
	case types.ProviderCohere:
		return newCohereClient(info, u.httpClient), nil
	default:
		return nil, fmt.Errorf("unknown provider id: %s", info.ID)
	}
}
