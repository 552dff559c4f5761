package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	iconKeyPrefix  = "booklore:cache:icon:" // + icon name
	defaultIconTTL = 12 * time.Hour
)

// IconCacheConfig configures the Redis icon cache.
type IconCacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TTL time.Duration

	// DisableOnError trips the circuit breaker on the first Redis error,
	// turning every subsequent call into a no-op.
	DisableOnError bool
}

// DefaultIconCacheConfig returns the default cache configuration.
func DefaultIconCacheConfig() IconCacheConfig {
	return IconCacheConfig{
		RedisAddr:      "localhost:6379",
		TTL:            defaultIconTTL,
		DisableOnError: true,
	}
}

// RedisIconCache caches icon content in Redis with graceful fallback. A
// misbehaving or absent Redis never fails a request, callers just fall
// through to the backing store.
type RedisIconCache struct {
	client *redis.Client
	logger zerolog.Logger
	config IconCacheConfig

	mu       sync.RWMutex
	disabled bool
}

// NewRedisIconCache creates the cache. If Redis is unreachable the cache is
// returned in a disabled state rather than failing startup.
func NewRedisIconCache(cfg IconCacheConfig, logger zerolog.Logger) *RedisIconCache {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultIconTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := &RedisIconCache{
		client: client,
		logger: logger.With().Str("component", "icon_cache").Logger(),
		config: cfg,
	}
	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Redis unavailable, icon cache disabled")
		c.disabled = true
	}
	return c
}

// Close releases the Redis connection.
func (c *RedisIconCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable reports whether the cache is operational.
func (c *RedisIconCache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *RedisIconCache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling icon cache due to Redis error")
	}
}

// Get returns the cached icon content if present.
func (c *RedisIconCache) Get(ctx context.Context, name string) (string, bool) {
	if !c.IsAvailable() {
		return "", false
	}

	content, err := c.client.Get(ctx, iconKeyPrefix+name).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.handleError(err, "get")
		return "", false
	}
	c.logger.Debug().Str("icon", name).Msg("icon cache hit")
	return content, true
}

// Put stores one icon.
func (c *RedisIconCache) Put(ctx context.Context, name, content string) {
	if !c.IsAvailable() {
		return
	}
	if err := c.client.Set(ctx, iconKeyPrefix+name, content, c.config.TTL).Err(); err != nil {
		c.handleError(err, "set")
	}
}

// PutAll stores a batch of icons in one pipeline round trip.
func (c *RedisIconCache) PutAll(ctx context.Context, icons map[string]string) {
	if !c.IsAvailable() || len(icons) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for name, content := range icons {
		pipe.Set(ctx, iconKeyPrefix+name, content, c.config.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.handleError(err, "set_batch")
	}
}

// Remove drops one icon from the cache.
func (c *RedisIconCache) Remove(ctx context.Context, name string) {
	if !c.IsAvailable() {
		return
	}
	if err := c.client.Del(ctx, iconKeyPrefix+name).Err(); err != nil {
		c.handleError(err, "delete")
	}
}
