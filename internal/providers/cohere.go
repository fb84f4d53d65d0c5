// Cohere chat API adapter
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
	defaultCohereBaseURL = "https://api.cohere.com/v2"
	defaultCohereModel   = "command-r"
)

type cohereClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type cohereRequest struct {
	Model       string          `json:"model"`
	Messages    []cohereMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

type cohereMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cohereResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

type cohereErrorResponse struct {
	Message string `json:"message"`
}

func newCohereClient(info types.ProviderInfo, httpClient *http.Client) *cohereClient {
	baseURL := info.BaseURL
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}
	model := info.Model
	if model == "" {
		model = defaultCohereModel
	}
	return &cohereClient{
		apiKey:     info.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}
}

func (c *cohereClient) Chat(ctx context.Context, messages []types.Message, opts *types.CallOptions) (string, error) {
	reqBody := cohereRequest{
		Model:    c.model,
		Messages: make([]cohereMessage, 0, len(messages)),
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, cohereMessage{Role: m.Role, Content: m.Content})
	}
	if opts != nil {
		reqBody.Temperature = opts.Temperature
		reqBody.MaxTokens = opts.MaxTokens
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("cohere: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("cohere: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cohere: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("cohere: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr cohereErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("cohere: status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("cohere: status %d", resp.StatusCode)
	}

	var parsed cohereResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("cohere: unmarshal response: %w", err)
	}

	for _, block := range parsed.Message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", nil
}
