package llm

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func countingCompleter(calls *int) Completer {
	return CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		*calls++
		return &Response{Content: "class Ticket < ApplicationRecord; end", Model: req.Model, PromptTokens: 7, CompletionTokens: 3}, nil
	})
}

func TestCachedCompleter_HitAfterMiss(t *testing.T) {
	calls := 0
	store := newMemoryCache()
	cached := NewCachedCompleter(countingCompleter(&calls), store, "openai")

	req := Request{Model: "gpt-4o-mini", SystemPrompt: "architect", UserPrompt: "design jiro"}

	first, err := cached.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := cached.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, calls)
	assert.Len(t, store.entries, 1)
}

func TestCachedCompleter_DistinctPromptsMiss(t *testing.T) {
	calls := 0
	cached := NewCachedCompleter(countingCompleter(&calls), newMemoryCache(), "openai")

	_, err := cached.Complete(context.Background(), Request{Model: "m", UserPrompt: "a"})
	require.NoError(t, err)
	_, err = cached.Complete(context.Background(), Request{Model: "m", UserPrompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedCompleter_ReadErrorFallsThrough(t *testing.T) {
	calls := 0
	store := newMemoryCache()
	store.getErr = stderrors.New("connection refused")
	cached := NewCachedCompleter(countingCompleter(&calls), store, "openai")

	resp, err := cached.Complete(context.Background(), Request{UserPrompt: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content)
	assert.Equal(t, 1, calls)
}

func TestCachedCompleter_ErrorsAreNotCached(t *testing.T) {
	store := newMemoryCache()
	failing := CompleterFunc(func(ctx context.Context, req Request) (*Response, error) {
		return nil, stderrors.New("quota exceeded")
	})
	cached := NewCachedCompleter(failing, store, "openai")

	_, err := cached.Complete(context.Background(), Request{UserPrompt: "x"})
	require.Error(t, err)
	assert.Empty(t, store.entries)
}

func TestCachedCompleter_TracksCachedHits(t *testing.T) {
	calls := 0
	client := newClient(ProviderOpenAI, countingCompleter(&calls), testLLMConfig())
	cached := NewCachedCompleter(client, newMemoryCache(), "openai")

	req := Request{UserPrompt: "same"}
	_, err := cached.Complete(context.Background(), req)
	require.NoError(t, err)
	_, err = cached.Complete(context.Background(), req)
	require.NoError(t, err)

	usage := client.Tracker().Usage()
	assert.Equal(t, 1, usage.Requests)
	assert.Equal(t, 1, usage.CachedRequests)
	assert.Equal(t, int64(10), usage.TotalTokens)
}

func TestCacheKey(t *testing.T) {
	req := Request{Model: "gpt-4o", SystemPrompt: "s", UserPrompt: "u", MaxTokens: 10, Temperature: Float(0.2)}

	assert.Equal(t, CacheKey("openai", req), CacheKey("openai", req))
	assert.Len(t, CacheKey("openai", req), 64)
	assert.NotEqual(t, CacheKey("openai", req), CacheKey("gemini", req))

	moved := req
	moved.SystemPrompt, moved.UserPrompt = "su", ""
	assert.NotEqual(t, CacheKey("openai", req), CacheKey("openai", moved), "prompt boundary is part of the key")

	zero, unset := req, req
	zero.Temperature, unset.Temperature = Float(0), nil
	assert.NotEqual(t, CacheKey("openai", zero), CacheKey("openai", unset))
}
