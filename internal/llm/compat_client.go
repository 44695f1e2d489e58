package llm

import (
	"context"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// CompatClient talks to any server exposing the OpenAI chat completions API
// (Ollama, vLLM, LM Studio, OpenRouter) at a custom base URL.
type CompatClient struct {
	client  *openai.Client
	baseURL string
}

// NewCompatClient creates a client for baseURL. Local servers usually accept
// an empty key.
func NewCompatClient(baseURL, apiKey string) (*CompatClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required for an openai-compatible provider")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &CompatClient{
		client:  openai.NewClientWithConfig(cfg),
		baseURL: baseURL,
	}, nil
}

// Complete sends the prompts through the chat completions endpoint
func (c *CompatClient) Complete(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: compatTemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("completion against %s failed: %w", c.baseURL, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", c.baseURL)
	}

	return &Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     int64(resp.Usage.PromptTokens),
		CompletionTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

// compatTemperature sends an explicit 0 as the smallest float32. The request
// field is omitempty, so a plain 0 never reaches the server.
func compatTemperature(t *float64) float32 {
	if t == nil {
		return 0
	}
	if *t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(*t)
}
