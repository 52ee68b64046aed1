package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roomy-listing/pkg/metadata"
)

const redisKeyPrefix = "roomy:listing:"

// CacheConfig selects and tunes a ResultCache backend
type CacheConfig struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
	RedisURL   string
}

// NewResultCache builds the backend named by cfg.Backend
func NewResultCache(cfg CacheConfig) (ResultCache, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryResultCache(cfg.MaxEntries, cfg.TTL), nil
	case BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return NewRedisResultCache(redis.NewClient(opts), cfg.TTL), nil
	case BackendNone:
		return NoopResultCache{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// MemoryResultCache keeps results in an in-process LRU
type MemoryResultCache struct {
	cache *MemoryCache
	ttl   time.Duration
}

// NewMemoryResultCache creates an in-process cache
func NewMemoryResultCache(maxEntries int, ttl time.Duration) *MemoryResultCache {
	interval := time.Minute
	if ttl > 0 && ttl < interval {
		interval = ttl
	}
	return &MemoryResultCache{
		cache: NewMemoryCache(maxEntries, interval),
		ttl:   ttl,
	}
}

func (c *MemoryResultCache) Get(_ context.Context, listingID string) (*metadata.MetadataResult, bool, error) {
	v, ok := c.cache.Get(listingID)
	if !ok {
		return nil, false, nil
	}
	result, ok := v.(*metadata.MetadataResult)
	if !ok {
		return nil, false, nil
	}
	return cloneResult(result), true, nil
}

func (c *MemoryResultCache) Set(_ context.Context, listingID string, result *metadata.MetadataResult) error {
	if result == nil {
		return errors.New("nil result")
	}
	c.cache.Set(listingID, cloneResult(result), c.ttl)
	return nil
}

func (c *MemoryResultCache) Close() error {
	return c.cache.Close()
}

// RedisResultCache stores results as JSON under roomy:listing:<id>
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResultCache wraps an existing redis client
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl}
}

func (c *RedisResultCache) Get(ctx context.Context, listingID string) (*metadata.MetadataResult, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+listingID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result metadata.MetadataResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, listingID string, result *metadata.MetadataResult) error {
	if result == nil {
		return errors.New("nil result")
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+listingID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity to redis
func (c *RedisResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisResultCache) Close() error {
	return c.client.Close()
}

// NoopResultCache never stores anything
type NoopResultCache struct{}

func (NoopResultCache) Get(context.Context, string) (*metadata.MetadataResult, bool, error) {
	return nil, false, nil
}

func (NoopResultCache) Set(context.Context, string, *metadata.MetadataResult) error {
	return nil
}

func (NoopResultCache) Close() error {
	return nil
}

// cloneResult copies the result so callers cannot mutate cached entries
func cloneResult(r *metadata.MetadataResult) *metadata.MetadataResult {
	out := *r
	if r.Metadata != nil {
		m := *r.Metadata
		m.Title = cloneString(m.Title)
		m.Description = cloneString(m.Description)
		m.ImageURL = cloneString(m.ImageURL)
		m.URL = cloneString(m.URL)
		m.SiteName = cloneString(m.SiteName)
		out.Metadata = &m
	}
	if r.Error != nil {
		e := *r.Error
		out.Error = &e
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
