package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ResponseCache stores serialized responses by key. cache.Store satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedCompleter serves repeated identical requests from a ResponseCache.
// Cache failures are logged and fall through to the wrapped Completer.
type CachedCompleter struct {
	next      Completer
	cache     ResponseCache
	namespace string
	logger    *slog.Logger
}

// NewCachedCompleter wraps next. namespace separates entries of different
// providers that share a cache.
func NewCachedCompleter(next Completer, cache ResponseCache, namespace string) *CachedCompleter {
	return &CachedCompleter{
		next:      next,
		cache:     cache,
		namespace: namespace,
		logger:    slog.Default().With("component", "llm_cache"),
	}
}

// CacheKey returns the hex SHA-256 of everything that determines a completion
func CacheKey(namespace string, req Request) string {
	h := sha256.New()
	temperature := "default"
	if req.Temperature != nil {
		temperature = fmt.Sprintf("%.4f", *req.Temperature)
	}
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s\x00", namespace, req.Model, req.MaxTokens, temperature)
	h.Write([]byte(req.SystemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(req.UserPrompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Complete returns a cached response when present, otherwise calls the
// wrapped Completer and stores its response.
func (c *CachedCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	if d, ok := c.next.(interface{ WithDefaults(Request) Request }); ok {
		req = d.WithDefaults(req)
	}
	key := CacheKey(c.namespace, req)

	if data, found, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", "error", err)
	} else if found {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			resp.Cached = true
			if t, ok := c.next.(interface{ Tracker() *TokenTracker }); ok {
				t.Tracker().Record(&resp)
			}
			c.logger.Debug("cache hit", "key", key[:12], "model", resp.Model)
			return &resp, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "key", key[:12])
	}

	resp, err := c.next.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("cache encode failed", "error", err)
		return resp, nil
	}
	if err := c.cache.Set(ctx, key, data); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
	return resp, nil
}
