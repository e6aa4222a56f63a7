package health

import (
	"context"
	"time"
)

// FrameClock 提供最近一次成功解码帧的时间
type FrameClock interface {
	LastFrameAt() time.Time
}

// SensorChecker 传感器数据新鲜度检查
// 传感器只影响读数，不影响配置通道，因此最多降级
type SensorChecker struct {
	clock      FrameClock
	staleAfter time.Duration
	now        func() time.Time
}

// NewSensorChecker 创建传感器检查器
func NewSensorChecker(clock FrameClock, staleAfter time.Duration) *SensorChecker {
	return &SensorChecker{clock: clock, staleAfter: staleAfter, now: time.Now}
}

func (c *SensorChecker) Name() string {
	return "sensor"
}

func (c *SensorChecker) Check(ctx context.Context) CheckResult {
	start := c.now()
	last := c.clock.LastFrameAt()
	if last.IsZero() {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "no frame received yet",
			Latency: c.now().Sub(start),
		}
	}

	age := start.Sub(last)
	result := CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]any{
			"last_frame_at": last,
			"age":           age.String(),
		},
	}
	if c.staleAfter > 0 && age > c.staleAfter {
		result.Status = StatusDegraded
		result.Message = "sensor data stale"
	}
	result.Latency = c.now().Sub(start)
	return result
}
