package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis instance. Redis owns TTL expiry;
// nothing is polled from this side.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection before
// returning, so a misconfigured address fails at startup rather than on the
// first revocation check.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: connecting to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable(err)
	}
	return val, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Swap uses SET with XX+GET+KEEPTTL: set only if the key exists, keep its
// TTL, return the previous value. Redis executes the command atomically,
// which is what makes concurrent rotation races resolvable.
func (s *RedisStore) Swap(ctx context.Context, key, value string) (string, error) {
	prev, err := s.client.SetArgs(ctx, key, value, redis.SetArgs{
		Mode:    "XX",
		Get:     true,
		KeepTTL: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable(err)
	}
	return prev, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
