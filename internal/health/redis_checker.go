package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPinger Redis 后端的健康探测能力
type RedisPinger interface {
	HealthCheck(ctx context.Context) error
	ConfigPresent(ctx context.Context, key string) (bool, error)
	Stats() *redis.PoolStats
}

// RedisChecker 检查 Redis 连通性，并报告配置键是否已写入
type RedisChecker struct {
	client RedisPinger
	key    string
}

func NewRedisChecker(client RedisPinger, key string) *RedisChecker {
	return &RedisChecker{client: client, key: key}
}

func (c *RedisChecker) Name() string {
	return "redis"
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}
	present, err := c.client.ConfigPresent(ctx, c.key)
	if err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("exists %s failed: %v", c.key, err),
			Latency: time.Since(start),
		}
	}

	stats := c.client.Stats()
	inUse := 0.0
	if stats.TotalConns > 0 {
		inUse = float64(stats.TotalConns-stats.IdleConns) / float64(stats.TotalConns)
	}
	status, message := StatusHealthy, "ok"
	if inUse > 0.9 {
		status, message = StatusDegraded, "connection pool near limit"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"config_key":     c.key,
			"config_present": present,
			"total_conns":    stats.TotalConns,
			"timeouts":       stats.Timeouts,
		},
		Latency: time.Since(start),
	}
}
