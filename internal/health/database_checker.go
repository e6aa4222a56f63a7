package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DBQuerier 数据库检查所需的最小能力，*pgxpool.Pool 满足
type DBQuerier interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DatabaseChecker 检查 PostgreSQL 连通性以及 device_config 表是否可读
// 迁移未执行时表不存在，报告为 unhealthy
type DatabaseChecker struct {
	db DBQuerier
}

func NewDatabaseChecker(db DBQuerier) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (c *DatabaseChecker) Name() string {
	return "database"
}

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.db.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	var keys int64
	if err := c.db.QueryRow(ctx, `SELECT count(*) FROM device_config`).Scan(&keys); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("device_config unreadable: %v", err),
			Latency: time.Since(start),
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{"config_keys": keys},
		Latency: time.Since(start),
	}
}
