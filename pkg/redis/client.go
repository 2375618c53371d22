package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds redis connection settings.
type Config struct {
	Address      string
	Password     string
	Database     int
	Enabled      bool
	PoolSize     int
	MinIdleConns int
}

// Client wraps the redis connection used for the user cache. When redis
// is disabled or unreachable the client degrades to a no-op so the API
// keeps serving from the database.
type Client struct {
	rdb     *goredis.Client
	enabled bool
	log     *zap.Logger
}

// NewClient connects to redis. It never fails hard: a connection error
// at startup only disables caching.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if !cfg.Enabled {
		log.Info("redis disabled, user cache inactive")
		return &Client{enabled: false, log: log}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, user cache inactive", zap.Error(err))
		_ = rdb.Close()
		return &Client{enabled: false, log: log}
	}

	log.Info("redis connected", zap.String("address", cfg.Address))
	return &Client{rdb: rdb, enabled: true, log: log}
}

// IsEnabled reports whether the cache is active.
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// Get unmarshals the cached value for key into dest. The bool result
// reports whether the key was present.
func (c *Client) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled {
		return false, nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("redis unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis marshal %s: %w", key, err)
	}

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys from the cache.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Ping checks connectivity, used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
