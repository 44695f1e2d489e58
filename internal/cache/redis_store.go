package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces completion entries in a shared Redis
const KeyPrefix = "crewforge:completion:"

// RedisStore shares completions between machines through Redis
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration // zero keeps entries until evicted
}

// NewRedisStore connects to addr and verifies connectivity
func NewRedisStore(ctx context.Context, addr, password string, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address missing")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password, // Empty string if no password
		DB:       0,
	})

	// Fail fast on startup
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger := slog.Default().With("component", "redis")
	logger.Info("redis cache connected", "addr", addr)

	return &RedisStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Close closes the Redis client connection
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Get retrieves a cached value. A miss is not an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, KeyPrefix+key).Bytes()
	if err == redis.Nil {
		s.logger.Debug("cache miss", "key", key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed for key %s: %w", key, err)
	}

	s.logger.Debug("cache hit", "key", key)
	return val, true, nil
}

// Set stores a value with the store TTL
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, KeyPrefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed for key %s: %w", key, err)
	}

	s.logger.Debug("cache set", "key", key, "ttl", s.ttl)
	return nil
}

// Clear deletes every completion entry under KeyPrefix
func (s *RedisStore) Clear(ctx context.Context) (int64, error) {
	return s.DeletePattern(ctx, KeyPrefix+"*")
}

// DeletePattern deletes all keys matching a pattern
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error
		batch, cursor, err = s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed for pattern %s: %w", pattern, err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		s.logger.Debug("no keys matched pattern", "pattern", pattern)
		return 0, nil
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete failed for pattern %s: %w", pattern, err)
	}

	s.logger.Info("cache pattern delete", "pattern", pattern, "deleted", deleted)
	return deleted, nil
}
