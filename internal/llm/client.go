package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/rohankatakam/crewforge/internal/errors"
)

// Client provides a multi-provider LLM interface. It fills request defaults
// from config, paces requests, applies the per-call timeout and tracks token
// usage around a provider backend.
type Client struct {
	provider Provider
	backend  Completer
	limiter  *RateLimiter
	tracker  *TokenTracker
	logger   *slog.Logger

	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewClient creates a client for cfg.LLM.Provider. A missing credential is a
// config error; the openai-compatible provider may run without one.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	logger := slog.Default().With("component", "llm")

	provider := Provider(cfg.LLM.Provider)
	apiKey := cfg.APIKey(cfg.LLM.Provider)

	if apiKey == "" && provider != ProviderOpenAICompatible {
		envVar := config.EnvVarForProvider(cfg.LLM.Provider)
		return nil, errors.ConfigErrorf(
			"%s is not set. Export it, add it to .env, or run 'crewforge configure'", envVar).
			WithContext("provider", cfg.LLM.Provider)
	}

	var (
		backend Completer
		err     error
	)
	switch provider {
	case ProviderOpenAI:
		backend, err = NewOpenAIClient(apiKey)
	case ProviderOpenAICompatible:
		backend, err = NewCompatClient(cfg.LLM.CustomLLMURL, apiKey)
	case ProviderGemini:
		backend, err = NewGeminiClient(ctx, apiKey)
	case ProviderAnthropic:
		backend, err = NewAnthropicClient(apiKey)
	default:
		return nil, errors.ConfigErrorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to create llm client").
			WithContext("provider", cfg.LLM.Provider)
	}

	client := newClient(provider, backend, cfg.LLM)
	logger.Info("llm client initialized",
		"provider", provider,
		"model", client.model,
		"requests_per_second", cfg.LLM.RequestsPerSecond,
	)
	return client, nil
}

func newClient(provider Provider, backend Completer, cfg config.LLMConfig) *Client {
	return &Client{
		provider:    provider,
		backend:     backend,
		limiter:     NewRateLimiter(cfg.RequestsPerSecond),
		tracker:     NewTokenTracker(),
		logger:      slog.Default().With("component", "llm", "provider", string(provider)),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

// Provider returns the active LLM provider
func (c *Client) Provider() Provider {
	return c.provider
}

// Model returns the default model used when a request does not name one
func (c *Client) Model() string {
	return c.model
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// WithDefaults fills zero fields of req from the client configuration
func (c *Client) WithDefaults(req Request) Request {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}
	if req.Temperature == nil {
		req.Temperature = Float(c.temperature)
	}
	return req
}

// Complete sends one request to the provider
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	req = c.WithDefaults(req)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.ExternalError(err, "llm request cancelled while waiting for rate limiter")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.backend.Complete(ctx, req)
	if err != nil {
		c.logger.Error("completion failed", "model", req.Model, "error", err)
		return nil, errors.ExternalError(err, "llm completion failed").
			WithContext("provider", string(c.provider)).
			WithContext("model", req.Model)
	}

	resp.Duration = time.Since(start)
	if resp.Model == "" {
		resp.Model = req.Model
	}
	c.tracker.Record(resp)

	c.logger.Debug("completion",
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"duration_ms", resp.Duration.Milliseconds(),
	)

	return resp, nil
}
