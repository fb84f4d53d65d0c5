// Anthropic messages API adapter
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/llm-router/router/pkg/types"
)

const (
	defaultClaudeBaseURL   = "https://api.anthropic.com/v1"
	defaultClaudeModel     = "claude-3-5-haiku-latest"
	claudeAPIVersion       = "2023-06-01"
	claudeDefaultMaxTokens = 4096
)

type claudeClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func newClaudeClient(info types.ProviderInfo, httpClient *http.Client) *claudeClient {
	baseURL := info.BaseURL
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	model := info.Model
	if model == "" {
		model = defaultClaudeModel
	}
	return &claudeClient{
		apiKey:     info.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}
}

func (c *claudeClient) Chat(ctx context.Context, messages []types.Message, opts *types.CallOptions) (string, error) {
	// Anthropic takes system prompts in a dedicated field; fold any system
	// messages out of the conversation.
	reqBody := claudeRequest{
		Model:     c.model,
		MaxTokens: claudeDefaultMaxTokens,
	}
	for _, m := range messages {
		if m.Role == "system" {
			if reqBody.System != "" {
				reqBody.System += "\n"
			}
			reqBody.System += m.Content
			continue
		}
		reqBody.Messages = append(reqBody.Messages, claudeMessage{Role: m.Role, Content: m.Content})
	}
	if opts != nil {
		reqBody.Temperature = opts.Temperature
		if opts.MaxTokens != nil {
			reqBody.MaxTokens = *opts.MaxTokens
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("claude: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("claude: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("claude: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr claudeErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("claude: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("claude: status %d", resp.StatusCode)
	}

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("claude: unmarshal response: %w", err)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", nil
}
