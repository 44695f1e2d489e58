package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient wraps Google's Generative AI SDK
type GeminiClient struct {
	client *genai.Client
	logger *slog.Logger
}

// NewGeminiClient creates a new Gemini API client
// apiKey: Google AI API key (from environment, keychain or config)
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		logger: slog.Default().With("component", "gemini"),
	}, nil
}

// Complete sends a prompt to Gemini with the system prompt as system instruction
func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	var systemInstruction *genai.Content
	if req.SystemPrompt != "" {
		systemInstruction = genai.Text(req.SystemPrompt)[0]
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
	}
	if req.Temperature != nil {
		genConfig.Temperature = ptrFloat32(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.UserPrompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content parts (finish reason %s)", candidate.FinishReason)
	}

	// Long generations can arrive split across several text parts
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	out := &Response{
		Content: sb.String(),
		Model:   req.Model,
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	c.logger.Debug("gemini completion",
		"prompt_length", len(req.UserPrompt),
		"response_length", len(out.Content),
		"parts", len(candidate.Content.Parts),
	)

	return out, nil
}

func ptrFloat32(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
