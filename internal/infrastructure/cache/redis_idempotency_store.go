package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arledger/backend/internal/domain/shared"
)

const reconcileKeyPrefix = "reconcile:idempotency:"

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisIdempotencyStore implements shared.IdempotencyStore on redis.
// Keys are written with SETNX so concurrent submissions race safely.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore connects to redis and verifies the connection
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: reconcileKeyPrefix,
	}, nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client
func NewRedisIdempotencyStoreWithClient(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: reconcileKeyPrefix,
	}
}

// MarkProcessed marks a key processed; false means it was already set
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark key processed: %w", err)
	}
	return ok, nil
}

// Close closes the underlying redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// GetClient exposes the client for health checks
func (s *RedisIdempotencyStore) GetClient() *redis.Client {
	return s.client
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
