package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of a Redis client.
type RedisStore struct {
	client  *redis.Client
	listTTL time.Duration
}

// NewRedisStore creates a RedisStore. listTTL bounds the lifetime of
// history lists; a non-positive value keeps them forever.
func NewRedisStore(client *redis.Client, listTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, listTTL: listTTL}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %q: %w", prefix, err)
	}
	return keys, nil
}

func (s *RedisStore) PushBounded(ctx context.Context, listKey string, value []byte, maxLen int64) error {
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, listKey, value)
	if maxLen > 0 {
		pipe.LTrim(ctx, listKey, 0, maxLen-1)
	}
	if s.listTTL > 0 {
		pipe.Expire(ctx, listKey, s.listTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push %q: %w", listKey, err)
	}
	return nil
}

func (s *RedisStore) ReadRange(ctx context.Context, listKey string, from, to int64) ([][]byte, error) {
	values, err := s.client.LRange(ctx, listKey, from, to).Result()
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", listKey, err)
	}
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		out = append(out, []byte(v))
	}
	return out, nil
}
