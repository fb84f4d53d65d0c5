// Package orchestrator is the top-level entry point of the routing layer.
// It owns response caching and cross-provider fallback; everything upstream
// of it (HTTP handlers, persistence) is glue.
package orchestrator

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/llm-router/router/internal/providers"
	"github.com/llm-router/router/internal/router"
	"github.com/llm-router/router/internal/storage"
	"github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/types"
	"github.com/llm-router/router/pkg/utils"
)

// Orchestrator consults the response cache, delegates to the Router, and on
// total routed failure iterates the fallback provider list directly.
type Orchestrator struct {
	router   *router.Router
	caller   providers.Caller
	cache    storage.Cache
	cacheTTL time.Duration
	logger   *utils.Logger
}

// New creates an orchestrator. cacheTTL bounds how long a generated
// response is served without contacting a provider.
func New(r *router.Router, caller providers.Caller, cache storage.Cache, cacheTTL time.Duration, logger *utils.Logger) *Orchestrator {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Orchestrator{
		router:   r,
		caller:   caller,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Respond handles one chat request end to end.
//
// Ordinary provider unavailability never surfaces as a hard error: the only
// error Respond returns is errors.AllProvidersFailed, the explicit
// absence-of-result signal, checked by callers with errors.Is.
func (o *Orchestrator) Respond(ctx context.Context, messages []types.Message, promptText string, opts *types.RespondOptions) (string, error) {
	key := utils.Fingerprint(promptText)

	if text, found, err := o.cache.Get(ctx, key); err != nil {
		// A broken cache degrades to a miss; the request still proceeds.
		o.logger.WithError(err).Warn("Response cache lookup failed")
	} else if found {
		o.logger.WithField("fingerprint", key).Debug("Response cache hit")
		return text, nil
	}

	if opts != nil && opts.UseMultipleProviders {
		// Accepted but currently identical to single-provider mode;
		// reserved for response aggregation.
		o.logger.Debug("Multi-provider mode requested; running single-provider flow")
	}

	var callOpts *types.CallOptions
	if opts != nil {
		callOpts = opts.Call
	}

	result, routeErr := o.router.RouteAndChat(ctx, messages, promptText, callOpts)
	if routeErr == nil {
		o.store(ctx, key, result.ResponseText)
		return result.ResponseText, nil
	}

	o.logger.WithError(routeErr).Info("Routed attempt failed, starting fallback iteration")

	// The provider the router already attempted is excluded from fallback.
	var attempted types.ProviderID
	var routed *router.RoutedCallError
	if stderrors.As(routeErr, &routed) {
		attempted = routed.Provider
	}

	for _, id := range o.fallbackList(opts) {
		if id == attempted {
			continue
		}

		// Last-resort path: direct call, bypassing that provider's breaker
		// and the weighting logic.
		text, err := o.caller.Call(ctx, id, messages, callOpts)
		if err != nil || text == "" {
			o.logger.WithProvider(id).WithError(err).Debug("Fallback attempt failed")
			continue
		}

		o.logger.WithProvider(id).Info("Fallback provider answered")
		o.store(ctx, key, text)
		return text, nil
	}

	return "", errors.AllProvidersFailed
}

// fallbackList returns the caller-supplied fallback order, or the full
// provider enumeration. Unknown ids are dropped.
func (o *Orchestrator) fallbackList(opts *types.RespondOptions) []types.ProviderID {
	if opts == nil || len(opts.FallbackProviders) == 0 {
		return types.AllProviders()
	}

	list := make([]types.ProviderID, 0, len(opts.FallbackProviders))
	for _, id := range opts.FallbackProviders {
		if id.Valid() {
			list = append(list, id)
		}
	}
	if len(list) == 0 {
		return types.AllProviders()
	}
	return list
}

// store writes a successful response to the cache. Two concurrent misses
// writing the same key is fine; both store equivalent content.
func (o *Orchestrator) store(ctx context.Context, key, text string) {
	if err := o.cache.Set(ctx, key, text, o.cacheTTL); err != nil {
		o.logger.WithError(err).Warn("Failed to write response cache")
	}
}
