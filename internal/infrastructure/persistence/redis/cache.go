// Package redis implements Redis-backed infrastructure: a JSON cache, a
// write-through player cache and the Pub/Sub client used by the event bus.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PrefixPlayer namespaces player keys.
	PrefixPlayer = "valoron:player:"

	// TTLPlayer is how long a cached player stays valid.
	TTLPlayer = 10 * time.Minute
)

var (
	ErrCacheMiss     = errors.New("cache: miss")
	ErrCacheKeyEmpty = errors.New("cache: empty key")
)

// Config is the subset of go-redis options the worker exposes.
type Config struct {
	Addr     string
	Password string
	DB       int

	PoolSize int
	// Timeout applies to dialing and to every read and write.
	Timeout time.Duration
}

// DefaultConfig points at a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr:     "localhost:6379",
		PoolSize: 10,
		Timeout:  3 * time.Second,
	}
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: 1,
		DialTimeout:  c.Timeout,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
	}
}

// Cache stores JSON values and carries the event bus Pub/Sub traffic.
type Cache struct {
	client *redis.Client
}

// NewCache dials Redis and fails unless a ping succeeds within cfg.Timeout.
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

// Set encodes value and stores it under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get decodes the value under key into dest, or returns ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// PlayerKey is the cache key of a player snapshot.
func PlayerKey(playerID string) string {
	return PrefixPlayer + playerID
}
