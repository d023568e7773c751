package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when none is configured.
const DefaultRedisPrefix = "threadflow:thread:"

// RedisStore is a Redis implementation of Store[S].
//
// Designed for:
//   - Shared checkpoint storage across multiple engine processes
//   - Deployments that already operate Redis
//   - Optional automatic expiry of abandoned threads via TTL
//
// Snapshots are stored as JSON strings under a configurable key prefix.
// Redis serializes commands per connection, which combined with the engine's
// single-writer-per-thread discipline makes Save/Load safe without locks.
//
// Type parameter S is the snapshot type to persist (must be JSON-serializable).
type RedisStore[S any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption[S any] func(*RedisStore[S])

// WithRedisPrefix sets the key prefix for thread snapshots.
func WithRedisPrefix[S any](prefix string) RedisOption[S] {
	return func(s *RedisStore[S]) {
		s.prefix = prefix
	}
}

// WithRedisTTL sets an expiration for thread snapshots.
//
// Zero (the default) keeps snapshots forever; a positive TTL lets abandoned
// threads expire. Each Save refreshes the TTL.
func WithRedisTTL[S any](ttl time.Duration) RedisOption[S] {
	return func(s *RedisStore[S]) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed store from an existing client.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	st := store.NewRedisStore[workflow.ThreadState](client,
//	    store.WithRedisTTL[workflow.ThreadState](24*time.Hour))
func NewRedisStore[S any](client *redis.Client, opts ...RedisOption[S]) *RedisStore[S] {
	s := &RedisStore[S]{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore[S]) key(threadID string) string {
	return s.prefix + threadID
}

// Load retrieves the latest snapshot for a thread.
//
// Returns ErrNotFound if the thread ID has never been saved or has expired.
func (s *RedisStore[S]) Load(ctx context.Context, threadID string) (S, error) {
	var zero S

	val, err := s.client.Get(ctx, s.key(threadID)).Result()
	if err == redis.Nil {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to load thread: %w", err)
	}

	var snapshot S
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return zero, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

// Save durably writes the snapshot for a thread, replacing any previous one.
func (s *RedisStore[S]) Save(ctx context.Context, threadID string, snapshot S) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key(threadID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}
	return nil
}

// Delete removes a thread's snapshot. Absent IDs are a no-op.
func (s *RedisStore[S]) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (s *RedisStore[S]) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *RedisStore[S]) Close() error {
	return s.client.Close()
}
