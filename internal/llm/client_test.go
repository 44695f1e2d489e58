package llm

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:    config.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0.3,
		Timeout:     time.Minute,
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = config.ProviderAnthropic
	cfg.LLM.AnthropicKey = ""

	client, err := NewClient(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestNewClient_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mystery"
	cfg.LLM.OpenAIKey = "sk-unused"

	_, err := NewClient(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewClient_Providers(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*config.Config)
		provider Provider
	}{
		{"openai", func(c *config.Config) { c.LLM.OpenAIKey = "sk-test" }, ProviderOpenAI},
		{"anthropic", func(c *config.Config) {
			c.LLM.Provider = config.ProviderAnthropic
			c.LLM.AnthropicKey = "sk-ant-test"
		}, ProviderAnthropic},
		{"compatible without key", func(c *config.Config) {
			c.LLM.Provider = config.ProviderOpenAICompatible
			c.LLM.CustomLLMURL = "http://localhost:11434/v1"
			c.LLM.Model = "llama3.1"
		}, ProviderOpenAICompatible},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)

			client, err := NewClient(context.Background(), cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.provider, client.Provider())
			assert.Equal(t, cfg.LLM.Model, client.Model())
		})
	}
}

func TestNewClient_CompatibleRequiresURL(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = config.ProviderOpenAICompatible

	_, err := NewClient(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestClient_CompleteAppliesDefaults(t *testing.T) {
	var got Request
	backend := CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		got = req
		return &Response{Content: "ok", PromptTokens: 10, CompletionTokens: 5}, nil
	})

	client := newClient(ProviderOpenAI, backend, testLLMConfig())
	resp, err := client.Complete(context.Background(), Request{UserPrompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.3, *got.Temperature)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.Model, "model is filled from the request when the provider omits it")

	usage := client.Tracker().Usage()
	assert.Equal(t, int64(15), usage.TotalTokens)
	assert.Equal(t, 1, usage.Requests)
}

func TestClient_CompleteKeepsExplicitFields(t *testing.T) {
	var got Request
	backend := CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		got = req
		return &Response{Content: "ok", Model: "gpt-4o"}, nil
	})

	client := newClient(ProviderOpenAI, backend, testLLMConfig())
	_, err := client.Complete(context.Background(), Request{Model: "gpt-4o", MaxTokens: 64, Temperature: Float(1.1)})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Equal(t, 1.1, *got.Temperature)
}

func TestClient_CompleteKeepsZeroTemperature(t *testing.T) {
	var got Request
	backend := CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		got = req
		return &Response{Content: "ok"}, nil
	})

	client := newClient(ProviderOpenAI, backend, testLLMConfig())
	_, err := client.Complete(context.Background(), Request{UserPrompt: "hello", Temperature: Float(0)})
	require.NoError(t, err)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.0, *got.Temperature)
}

func TestCompatTemperature(t *testing.T) {
	assert.Equal(t, float32(0), compatTemperature(nil))
	assert.Greater(t, compatTemperature(Float(0)), float32(0))
	assert.Equal(t, float32(0.7), compatTemperature(Float(0.7)))
}

func TestClient_CompleteWrapsProviderError(t *testing.T) {
	boom := stderrors.New("503 service unavailable")
	backend := CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		return nil, boom
	})

	client := newClient(ProviderGemini, backend, testLLMConfig())
	_, err := client.Complete(context.Background(), Request{UserPrompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	assert.Equal(t, 0, client.Tracker().Usage().Requests)
}

func TestClient_CompleteAppliesTimeout(t *testing.T) {
	cfg := testLLMConfig()
	cfg.Timeout = 20 * time.Millisecond

	backend := CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	client := newClient(ProviderOpenAI, backend, cfg)
	_, err := client.Complete(context.Background(), Request{UserPrompt: "slow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_CompleteCancelledWhilePaced(t *testing.T) {
	cfg := testLLMConfig()
	cfg.RequestsPerSecond = 0.01

	calls := 0
	var mu sync.Mutex
	backend := CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &Response{Content: "ok"}, nil
	})

	client := newClient(ProviderOpenAI, backend, cfg)
	_, err := client.Complete(context.Background(), Request{UserPrompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Complete(ctx, Request{UserPrompt: "second"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "the provider is not called once the context is done")
}
