package gateway

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llm-router/router/internal/router"
	"github.com/llm-router/router/internal/storage"
	"github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/types"
)

// chatRequest is the inbound payload for POST /v1/chat.
type chatRequest struct {
	Messages []types.Message `json:"messages" binding:"required,min=1,dive"`
	// Prompt overrides the text used for classification and cache
	// fingerprinting; defaults to the last user message.
	Prompt               string             `json:"prompt,omitempty"`
	FallbackProviders    []types.ProviderID `json:"fallback_providers,omitempty"`
	UseMultipleProviders bool               `json:"use_multiple_providers,omitempty"`
	Temperature          *float64           `json:"temperature,omitempty"`
	MaxTokens            *int               `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	RequestID string `json:"request_id"`
}

func (g *Gateway) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiErr := errors.NewWithDetails(errors.ErrInvalidRequest, "Invalid request body", err.Error())
		c.JSON(apiErr.HTTPStatusCode, gin.H{"code": apiErr.Code, "message": apiErr.Message, "details": apiErr.Details})
		return
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = lastUserMessage(req.Messages)
	}
	if prompt == "" {
		apiErr := errors.New(errors.ErrInvalidRequest, "No user prompt in request")
		c.JSON(apiErr.HTTPStatusCode, gin.H{"code": apiErr.Code, "message": apiErr.Message})
		return
	}

	opts := &types.RespondOptions{
		FallbackProviders:    req.FallbackProviders,
		UseMultipleProviders: req.UseMultipleProviders,
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		opts.Call = &types.CallOptions{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}
	}

	requestID := c.GetString("request_id")
	start := time.Now()

	text, err := g.orchestrator.Respond(c.Request.Context(), req.Messages, prompt, opts)

	g.registry.LogRequest(c.Request.Context(), &storage.RequestLog{
		RequestID:  requestID,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	})

	if err != nil {
		// The orchestrator's only error is the absence-of-result signal.
		if stderrors.Is(err, errors.AllProvidersFailed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    errors.ErrAllProvidersFailed,
				"message": "No provider produced a response",
			})
			return
		}
		apiErr := errors.New(errors.ErrInternalServer, "Unexpected routing failure")
		c.JSON(apiErr.HTTPStatusCode, gin.H{"code": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Response:  text,
		RequestID: requestID,
	})
}

func (g *Gateway) handleBreakers(c *gin.Context) {
	c.JSON(http.StatusOK, g.breakers.Snapshot())
}

func (g *Gateway) handleBreakerReset(c *gin.Context) {
	id := types.ProviderID(c.Param("provider"))
	if !id.Valid() {
		apiErr := errors.New(errors.ErrInvalidRequest, "Unknown provider")
		c.JSON(apiErr.HTTPStatusCode, gin.H{"code": apiErr.Code, "message": apiErr.Message})
		return
	}

	cb := g.breakers.Get(id)
	prior := cb.State()
	cb.Reset()
	g.logger.LogBreakerTransition(id, prior.String(), router.StateClosed.String())
	c.JSON(http.StatusOK, gin.H{"provider": id, "state": "closed"})
}

func (g *Gateway) handleHealth(c *gin.Context) {
	status := http.StatusOK
	health := gin.H{"status": "ok"}

	if err := g.db.Ping(); err != nil {
		health["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := g.redis.Ping(c.Request.Context()); err != nil {
		health["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if status != http.StatusOK {
		health["status"] = "degraded"
	}

	c.JSON(status, health)
}

func lastUserMessage(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
