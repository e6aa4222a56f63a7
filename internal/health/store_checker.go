package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taoyao-code/aqmon/internal/settings"
)

// StoreChecker 配置存储检查：读取并解码 Wi-Fi 配置
type StoreChecker struct {
	kv settings.Backend
}

// NewStoreChecker 创建配置存储检查器
func NewStoreChecker(kv settings.Backend) *StoreChecker {
	return &StoreChecker{kv: kv}
}

func (c *StoreChecker) Name() string {
	return "store"
}

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	cfg, err := settings.LoadWifiConfig(ctx, c.kv)
	switch {
	case errors.Is(err, settings.ErrConfigCorrupt):
		// 存储可用但记录损坏，下一次 SetWifiConfig 会整体覆盖
		return CheckResult{
			Status:  StatusDegraded,
			Message: err.Error(),
			Latency: time.Since(start),
		}
	case err != nil:
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("read failed: %v", err),
			Latency: time.Since(start),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{
			"wifi_configured": cfg.SSID != "",
		},
		Latency: time.Since(start),
	}
}
