// Package providers implements the upstream LLM provider adapters
package providers

import (
	"context"

	"github.com/llm-router/router/pkg/types"
)

// Caller dispatches a chat call to one upstream provider by id. It is the
// single entry point for all upstream traffic, whether routed through a
// circuit breaker or invoked directly by the fallback path.
//
// An empty response with a nil error means the provider answered
// successfully but produced no usable output; transport, auth and status
// errors come back as non-nil errors. Callers treat both as failures.
type Caller interface {
	Call(ctx context.Context, id types.ProviderID, messages []types.Message, opts *types.CallOptions) (string, error)
}

// chatClient is one configured upstream connection. Each provider variant
// has exactly one implementation.
type chatClient interface {
	Chat(ctx context.Context, messages []types.Message, opts *types.CallOptions) (string, error)
}
