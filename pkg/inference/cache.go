package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
	"rakshak/pkg/structlog"
)

// Cache stores successful predictions keyed by model checksum, labeling
// profile and feature vector digest. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (PredictionResult, bool, error)
	Set(ctx context.Context, key string, res PredictionResult) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (PredictionResult, bool, error) {
	return PredictionResult{}, false, nil
}

func (NopCache) Set(context.Context, string, PredictionResult) error { return nil }

func cacheKey(family ml.Family, checksum, profile, digest string) string {
	return fmt.Sprintf("rakshak:pred:%s:%s:%s:%s", family, checksum, profile, digest)
}

func (a *Adapter) lookup(ctx context.Context, key string) (PredictionResult, bool) {
	if _, nop := a.cache.(NopCache); nop {
		return PredictionResult{}, false
	}
	res, ok, err := a.cache.Get(ctx, key)
	switch {
	case err != nil:
		a.metrics.ObserveCache(metrics.CacheError)
		a.log.WithContext(ctx).Warn("prediction cache read failed", structlog.Fields{"error": err})
		return PredictionResult{}, false
	case !ok:
		a.metrics.ObserveCache(metrics.CacheMiss)
		return PredictionResult{}, false
	}
	a.metrics.ObserveCache(metrics.CacheHit)
	return res, true
}

func (a *Adapter) store(ctx context.Context, key string, res PredictionResult) {
	if res.Failed() {
		return
	}
	if err := a.cache.Set(ctx, key, res); err != nil {
		a.log.WithContext(ctx).Warn("prediction cache write failed", structlog.Fields{"error": err})
	}
}

// RedisCache keeps predictions in redis with a fixed TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (PredictionResult, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return PredictionResult{}, false, nil
	}
	if err != nil {
		return PredictionResult{}, false, fmt.Errorf("redis get: %w", err)
	}
	var res PredictionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return PredictionResult{}, false, fmt.Errorf("decode cached prediction: %w", err)
	}
	return res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, res PredictionResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
