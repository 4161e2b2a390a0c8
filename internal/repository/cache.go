package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kmf-ai/server/internal/errx"
	"github.com/kmf-ai/server/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "kmf:"

// Cache is a byte-oriented key/value store with expiry. Get returns an error
// matching errx.ErrCacheMiss when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements Cache on a go-redis client.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errx.WrapRedis(c.client.Set(ctx, key, value, ttl).Err())
}

// cached serves the slow-changing catalogue lookups (subjects, years,
// papers, topics, stats) from a cache and forwards everything else.
type cached struct {
	QuestionRepository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// Cached wraps next with a read-through cache. Cache failures never fail a
// lookup; they fall through to next.
func Cached(next QuestionRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) QuestionRepository {
	return &cached{
		QuestionRepository: next,
		cache:              cache,
		ttl:                ttl,
		logger:             logger,
	}
}

func readThrough[T any](ctx context.Context, c *cached, key string, load func() (T, error)) (T, error) {
	key = cacheKeyPrefix + key

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(data, &v); jsonErr == nil {
			return v, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, errx.ErrCacheMiss):
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err = json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return v, nil
}

func (c *cached) Subjects(ctx context.Context) ([]string, error) {
	return readThrough(ctx, c, "subjects", func() ([]string, error) {
		return c.QuestionRepository.Subjects(ctx)
	})
}

func (c *cached) Years(ctx context.Context, subject string) ([]int, error) {
	key := fmt.Sprintf("years:%s", model.CollectionName(subject))
	return readThrough(ctx, c, key, func() ([]int, error) {
		return c.QuestionRepository.Years(ctx, subject)
	})
}

func (c *cached) Papers(ctx context.Context, subject string, year int) ([]string, error) {
	key := fmt.Sprintf("papers:%s:%d", model.CollectionName(subject), year)
	return readThrough(ctx, c, key, func() ([]string, error) {
		return c.QuestionRepository.Papers(ctx, subject, year)
	})
}

func (c *cached) Topics(ctx context.Context, subject string) ([]string, error) {
	key := fmt.Sprintf("topics:%s", model.CollectionName(subject))
	return readThrough(ctx, c, key, func() ([]string, error) {
		return c.QuestionRepository.Topics(ctx, subject)
	})
}

func (c *cached) Stats(ctx context.Context, subject string) (model.SubjectStats, error) {
	key := fmt.Sprintf("stats:%s", model.CollectionName(subject))
	return readThrough(ctx, c, key, func() (model.SubjectStats, error) {
		return c.QuestionRepository.Stats(ctx, subject)
	})
}
