package router

import (
	"context"
	"fmt"

	"github.com/llm-router/router/internal/intent"
	"github.com/llm-router/router/internal/providers"
	"github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/types"
	"github.com/llm-router/router/pkg/utils"
)

// Router binds intent classification, weighted selection and per-provider
// circuit breaking into one routed call. It performs at most one provider
// attempt per request; retry and fallback belong to the orchestrator.
type Router struct {
	classifier *intent.Classifier
	weights    *WeightManager
	breakers   *BreakerRegistry
	caller     providers.Caller
	logger     *utils.Logger
}

// NewRouter creates a router.
func NewRouter(classifier *intent.Classifier, weights *WeightManager, breakers *BreakerRegistry, caller providers.Caller, logger *utils.Logger) *Router {
	return &Router{
		classifier: classifier,
		weights:    weights,
		breakers:   breakers,
		caller:     caller,
		logger:     logger,
	}
}

// RoutedCallError reports a failure that happened after a provider had been
// selected, so the orchestrator can exclude that provider from its fallback
// iteration.
type RoutedCallError struct {
	Provider types.ProviderID
	Err      error
}

func (e *RoutedCallError) Error() string {
	return fmt.Sprintf("routed call to %s failed: %v", e.Provider, e.Err)
}

func (e *RoutedCallError) Unwrap() error {
	return e.Err
}

// RouteAndChat classifies the prompt, selects a provider and invokes it
// through that provider's circuit breaker.
func (r *Router) RouteAndChat(ctx context.Context, messages []types.Message, promptText string, callOpts *types.CallOptions) (*types.RoutingResult, error) {
	classified := r.classifier.Classify(promptText)

	provider, err := r.weights.SelectProvider(ctx, classified.PreferredProvider)
	if err != nil {
		return nil, err
	}

	r.logger.WithIntent(classified).WithField("provider", provider.String()).Debug("Routing request")

	breaker := r.breakers.Get(provider)
	text, err := breaker.Execute(func() (string, error) {
		return r.caller.Call(ctx, provider, messages, callOpts)
	}, nil)
	if err != nil {
		return nil, &RoutedCallError{Provider: provider, Err: err}
	}
	if text == "" {
		return nil, &RoutedCallError{Provider: provider, Err: errors.EmptyResponse}
	}

	return &types.RoutingResult{
		Provider:     provider,
		ResponseText: text,
		Intent:       classified,
	}, nil
}
