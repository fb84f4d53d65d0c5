// Package storage provides Redis-backed response caching
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/llm-router/router/pkg/types"
	"github.com/llm-router/router/pkg/utils"
)

// Cache is the response cache contract consumed by the orchestrator.
// Get reports a miss with found=false rather than an error; last-write-wins
// semantics are acceptable for concurrent Set calls on the same key.
type Cache interface {
	Get(ctx context.Context, key string) (text string, found bool, err error)
	Set(ctx context.Context, key, text string, ttl time.Duration) error
}

// RedisClient wraps redis.Client with additional functionality
type RedisClient struct {
	client *redis.Client
	config *types.RedisConfig
	logger *utils.Logger
}

// NewRedisClient creates a new Redis client
func NewRedisClient(config *types.RedisConfig, logger *utils.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.Database,

		// Connection pool settings
		PoolSize:     10,
		MinIdleConns: 5,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		// Retry settings
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")

	return &RedisClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Ping tests Redis connectivity
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// ResponseCache stores generated response text keyed by prompt fingerprint.
type ResponseCache struct {
	redis     *RedisClient
	keyPrefix string
}

// NewResponseCache creates a response cache on top of the Redis client.
func NewResponseCache(redis *RedisClient, keyPrefix string) *ResponseCache {
	if keyPrefix == "" {
		keyPrefix = "resp:"
	}
	return &ResponseCache{
		redis:     redis,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves cached response text by fingerprint.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.redis.client.Get(ctx, c.keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores response text under the fingerprint with the given TTL.
func (c *ResponseCache) Set(ctx context.Context, key, text string, ttl time.Duration) error {
	if err := c.redis.client.Set(ctx, c.keyPrefix+key, text, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
