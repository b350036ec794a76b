package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache delegates expiry to redis itself.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) RedisCache {
	return RedisCache{client: client}
}

func DialRedis(ctx context.Context, addr, password string, db int) (RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	err := client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return RedisCache{}, err
	}
	return RedisCache{client: client}, nil
}

func (c RedisCache) Close() error {
	return c.client.Close()
}

func (c RedisCache) Get(ctx context.Context, key string) (string, bool) {
	ctx, span := startSpan(ctx, "cache:get", "redis", key)
	defer span.End()

	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		recordHit(span, false)
		return "", false
	}
	if err != nil {
		recordError(span, err, "failed to get key")
		return "", false
	}
	recordHit(span, true)
	return value, true
}

func (c RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, span := startSpan(ctx, "cache:set", "redis", key)
	defer span.End()

	err := checkTTL(span, ttl)
	if err != nil {
		return err
	}
	err = c.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		recordError(span, err, "failed to set key")
		return err
	}
	return nil
}

func (c RedisCache) Delete(ctx context.Context, key string) error {
	ctx, span := startSpan(ctx, "cache:delete", "redis", key)
	defer span.End()

	err := c.client.Del(ctx, key).Err()
	if err != nil {
		recordError(span, err, "failed to delete key")
		return err
	}
	return nil
}
