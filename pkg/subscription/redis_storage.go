package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisconn "github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// RedisStorage is a Redis-backed implementation of the Storage interface.
// Records are stored as JSON under subscription:{kind}:{id}:{key}, which
// keeps per-target listing a single SCAN over one prefix.
type RedisStorage struct {
	client        redis.UniversalClient
	ownedClient   *redis.Client
	scanBatchSize int64
}

// NewRedisStorage creates a subscription storage on top of a connected Redis
// client. The caller owns the client lifecycle.
func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	return &RedisStorage{
		client:        client,
		scanBatchSize: 100,
	}
}

// NewRedisStorageFromConfig dials Redis with the connect-with-retry helper,
// verifies the server answers, and returns a storage that owns the resulting
// client. Close the storage when done.
func NewRedisStorageFromConfig(ctx context.Context, cfg redisconn.Config) (*RedisStorage, error) {
	client, err := redisconn.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting subscription storage: %w", err)
	}
	if err := redisconn.Healthcheck(client)(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("verifying subscription storage: %w", err)
	}

	s := NewRedisStorage(client)
	s.ownedClient = client
	return s, nil
}

// Close releases the client when the storage was built via
// NewRedisStorageFromConfig. It is a no-op for caller-owned clients.
func (s *RedisStorage) Close() error {
	if s.ownedClient == nil {
		return nil
	}
	return s.ownedClient.Close()
}

func redisKey(target ref.Ref, key string) string {
	return fmt.Sprintf("subscription:%s:%s:%s", target.Kind, target.ID, key)
}

func (s *RedisStorage) Get(ctx context.Context, target ref.Ref, key string) (*Subscription, error) {
	data, err := s.client.Get(ctx, redisKey(target, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("loading subscription: %w", err)
	}

	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("decoding subscription: %w", err)
	}
	return &sub, nil
}

func (s *RedisStorage) Upsert(ctx context.Context, sub *Subscription) error {
	if sub.Target.IsZero() {
		return ErrMissingTarget
	}
	if sub.Key == "" {
		return ErrMissingKey
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encoding subscription: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(sub.Target, sub.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("storing subscription: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, target ref.Ref, key string) error {
	if err := s.client.Del(ctx, redisKey(target, key)).Err(); err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	return nil
}

func (s *RedisStorage) List(ctx context.Context, target ref.Ref) ([]Subscription, error) {
	pattern := fmt.Sprintf("subscription:%s:%s:*", target.Kind, target.ID)

	out := make([]Subscription, 0)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, s.scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning subscriptions: %w", err)
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, fmt.Errorf("loading subscription %s: %w", key, err)
			}
			var sub Subscription
			if err := json.Unmarshal(data, &sub); err != nil {
				return nil, fmt.Errorf("decoding subscription %s: %w", key, err)
			}
			out = append(out, sub)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}
