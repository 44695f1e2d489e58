package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rohankatakam/crewforge/internal/config"
)

// Store is a byte-oriented completion cache keyed by request hash
type Store interface {
	// Get returns the value and true on a hit; a miss is not an error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Clear removes every entry and returns how many were removed
	Clear(ctx context.Context) (int64, error)
	Close() error
}

// Backend names accepted in cache.backend
const (
	BackendBolt  = "bolt"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Open creates the store selected by cfg.Backend. It returns a nil Store and
// no error when caching is disabled.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case BackendBolt:
		store, err := OpenBoltStore(cfg.Path, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		store, err := NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// entry wraps a stored value with its expiry for stores without native TTL
type entry struct {
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Value     []byte    `json:"value"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
