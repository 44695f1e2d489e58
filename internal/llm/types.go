package llm

import (
	"context"
	"time"
)

// Provider represents the LLM provider
type Provider string

const (
	ProviderOpenAI           Provider = "openai"
	ProviderOpenAICompatible Provider = "openai-compatible"
	ProviderGemini           Provider = "gemini"
	ProviderAnthropic        Provider = "anthropic"
)

// Request is a single system + user prompt completion
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  *float64 // nil uses the client default; 0 is a real setting
}

// Float returns a pointer to f, for Request.Temperature
func Float(f float64) *float64 {
	return &f
}

// Response is the text returned for a Request
type Response struct {
	Content          string        `json:"content"`
	Model            string        `json:"model"`
	PromptTokens     int64         `json:"prompt_tokens"`
	CompletionTokens int64         `json:"completion_tokens"`
	Duration         time.Duration `json:"duration"`
	Cached           bool          `json:"-"`
}

// TotalTokens returns prompt plus completion tokens
func (r *Response) TotalTokens() int64 {
	return r.PromptTokens + r.CompletionTokens
}

// Completer produces a completion for a request. Every provider client, the
// paced Client and the CachedCompleter implement it.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// CompleterFunc adapts a function to the Completer interface
type CompleterFunc func(ctx context.Context, req Request) (*Response, error)

// Complete calls f(ctx, req)
func (f CompleterFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
