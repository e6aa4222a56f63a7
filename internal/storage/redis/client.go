package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfgpkg "github.com/taoyao-code/aqmon/internal/config"
)

const pingTimeout = 5 * time.Second

// Client 配置存储使用的 Redis 连接，所有键都带 keyPrefix
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient 连接 Redis 并做一次 PING
func NewClient(cfg cfgpkg.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", cfg.Addr, err)
	}
	return newClient(rdb, cfg.KeyPrefix), nil
}

func newClient(rdb *redis.Client, prefix string) *Client {
	return &Client{rdb: rdb, prefix: prefix}
}

// KVStore 返回共享同一前缀的配置键值存储
func (c *Client) KVStore() *KVStore {
	return NewKVStore(c.rdb, c.prefix)
}

// HealthCheck PING
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ConfigPresent 配置键 key 是否已写入
func (c *Client) ConfigPresent(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Stats 连接池统计
func (c *Client) Stats() *redis.PoolStats {
	return c.rdb.PoolStats()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
