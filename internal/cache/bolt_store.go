package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const completionsBucket = "completions"

// BoltStore keeps completions in a local bbolt file
type BoltStore struct {
	db     *bolt.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// OpenBoltStore opens (creating if needed) the cache file at path. A zero ttl
// keeps entries forever.
func OpenBoltStore(path string, ttl time.Duration) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(completionsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	logger := slog.Default().With("component", "bolt_cache")
	logger.Debug("bolt cache opened", "path", path, "ttl", ttl)

	return &BoltStore{
		db:     db,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Get retrieves a cached value. Expired entries count as a miss.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e entry
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(completionsBucket)).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, false, fmt.Errorf("bolt get failed for key %s: %w", key, err)
	}
	if !found {
		s.logger.Debug("cache miss", "key", key)
		return nil, false, nil
	}
	if e.expired(s.now()) {
		s.logger.Debug("cache entry expired", "key", key)
		return nil, false, nil
	}

	s.logger.Debug("cache hit", "key", key)
	return e.Value, true, nil
}

// Set stores a value with the store TTL
func (s *BoltStore) Set(ctx context.Context, key string, value []byte) error {
	e := entry{Value: value}
	if s.ttl > 0 {
		e.ExpiresAt = s.now().Add(s.ttl)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(completionsBucket)).Put([]byte(key), data)
	})
}

// Clear drops every cached completion
func (s *BoltStore) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		removed = int64(tx.Bucket([]byte(completionsBucket)).Stats().KeyN)
		if err := tx.DeleteBucket([]byte(completionsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(completionsBucket))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear bolt cache: %w", err)
	}
	s.logger.Info("bolt cache cleared", "removed", removed)
	return removed, nil
}

// Close releases the file lock
func (s *BoltStore) Close() error {
	return s.db.Close()
}
