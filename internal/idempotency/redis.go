package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idempotency:reservation:"

// RedisStore shares keys between replicas through Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(k string) string {
	return keyPrefix + k
}

func (r *RedisStore) Reserve(ctx context.Context, key string) (*Response, error) {
	k := r.key(key)
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		data, err := r.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			raw, _ := json.Marshal(entry{Status: statusProcessing})
			_, err := r.client.SetArgs(ctx, k, raw, redis.SetArgs{Mode: "NX", TTL: r.ttl}).Result()
			if errors.Is(err, redis.Nil) {
				// Lost the race to another request; read its state.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("redis set: %w", err)
			}
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("redis get: %w", err)
		}

		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("redis unmarshal: %w", err)
		}
		if e.Status == statusDone && e.Response != nil {
			return e.Response, nil
		}
		return nil, ErrInProgress
	}
}

func (r *RedisStore) Complete(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(entry{Status: statusDone, Response: &resp})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), raw, r.ttl).Err()
}

func (r *RedisStore) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
