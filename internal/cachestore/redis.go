package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on a shared go-redis client. The client is
// injected with an explicit lifecycle (connected and pinged in main),
// never created here.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %s: %w", key, err)
	}

	return n > 0, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}

	return val, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	return nil
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incr %s: %w", key, err)
	}

	return val, nil
}

func (r *Redis) Decr(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache decr %s: %w", key, err)
	}

	return val, nil
}

func (r *Redis) SetAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}

	if err := r.client.SAdd(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("cache sadd %s: %w", key, err)
	}

	return nil
}

func (r *Redis) SetRemove(ctx context.Context, key, member string) error {
	if err := r.client.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("cache srem %s: %w", key, err)
	}

	return nil
}

func (r *Redis) SetIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("cache sismember %s: %w", key, err)
	}

	return ok, nil
}

func (r *Redis) SetCard(ctx context.Context, key string) (int64, error) {
	n, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache scard %s: %w", key, err)
	}

	return n, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", key, err)
	}

	return nil
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire %s: %w", key, err)
	}

	return nil
}
