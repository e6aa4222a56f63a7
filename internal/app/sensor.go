package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taoyao-code/aqmon/internal/metrics"
	"github.com/taoyao-code/aqmon/internal/protocol/pms"
	"github.com/taoyao-code/aqmon/internal/telemetry"
)

// FramePublisher 接收解码后的读数
type FramePublisher interface {
	Publish(r telemetry.Reading)
}

// SensorLoop 传感器读取循环：阻塞读帧、发布读数、休眠固定间隔
type SensorLoop struct {
	logger       *zap.Logger
	metrics      *metrics.AppMetrics
	publisher    FramePublisher
	pollInterval time.Duration
	resyncLog    *rate.Limiter
	now          func() time.Time
}

// NewSensorLoop 创建读取循环；resyncLogPerSec<=0 时不限制重同步日志
func NewSensorLoop(logger *zap.Logger, m *metrics.AppMetrics, pub FramePublisher, pollInterval time.Duration, resyncLogPerSec float64) *SensorLoop {
	limit := rate.Inf
	if resyncLogPerSec > 0 {
		limit = rate.Limit(resyncLogPerSec)
	}
	return &SensorLoop{
		logger:       logger,
		metrics:      m,
		publisher:    pub,
		pollInterval: pollInterval,
		resyncLog:    rate.NewLimiter(limit, 1),
		now:          time.Now,
	}
}

// Run 在 src 上开启一个读取会话，直到字节源出错或 ctx 取消
// 字节源错误以 pms.ErrByteSource 返回，由上层决定是否重启进程
func (l *SensorLoop) Run(ctx context.Context, src io.Reader) error {
	session := uuid.NewString()
	log := l.logger.With(zap.String("session", session))
	if l.metrics != nil {
		l.metrics.SensorSessionTotal.WithLabelValues("started").Inc()
	}

	reader := pms.NewReader(src, pms.WithResyncHook(func(reason error) {
		l.observeResync(log, reason)
	}))
	log.Info("sensor reader started")

	var lastBytes uint64
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		frame, err := reader.Next()
		l.observeBytes(reader.Stats().BytesRead, &lastBytes)
		if err != nil {
			if ctx.Err() != nil {
				// 关闭串口导致的读错误
				return nil
			}
			if l.metrics != nil {
				l.metrics.SensorSessionTotal.WithLabelValues("failed").Inc()
			}
			st := reader.Stats()
			log.Error("sensor read failed",
				zap.Error(err),
				zap.Uint64("frames", st.Frames),
				zap.Uint64("resyncs", st.Resyncs))
			return err
		}

		l.handleFrame(log, session, frame, reader.Skipped())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *SensorLoop) handleFrame(log *zap.Logger, session string, f pms.Frame, skipped int) {
	log.Info("pms frame",
		zap.Uint16("pm1_0", f.PM10Env),
		zap.Uint16("pm2_5", f.PM25Env),
		zap.Uint16("pm10", f.PM100Env),
		zap.Uint16("pm2_5_standard", f.PM25Standard),
		zap.Uint16("particles_0_3um", f.Particles03um),
		zap.Int("skipped", skipped))

	if l.metrics != nil {
		l.metrics.SensorFramesTotal.Inc()
		for _, fv := range readingFields(f) {
			l.metrics.SensorReading.WithLabelValues(fv.name).Set(float64(fv.value))
		}
	}
	if l.publisher != nil {
		l.publisher.Publish(telemetry.Reading{Frame: f, At: l.now(), Session: session})
	}
}

func (l *SensorLoop) observeResync(log *zap.Logger, reason error) {
	label := "checksum"
	if errors.Is(reason, pms.ErrInvalidStartByte) {
		label = "start_byte"
	}
	if l.metrics != nil {
		l.metrics.SensorResyncTotal.WithLabelValues(label).Inc()
	}
	if l.resyncLog.Allow() {
		log.Debug("pms resync", zap.String("reason", label), zap.Error(reason))
	}
}

func (l *SensorLoop) observeBytes(total uint64, last *uint64) {
	if l.metrics != nil && total > *last {
		l.metrics.SensorBytesTotal.Add(float64(total - *last))
	}
	*last = total
}

type fieldValue struct {
	name  string
	value uint16
}

// readingFields 导出为指标的测量字段（不含帧长、保留字与校验和）
func readingFields(f pms.Frame) []fieldValue {
	return []fieldValue{
		{"pm1_0_standard", f.PM10Standard},
		{"pm2_5_standard", f.PM25Standard},
		{"pm10_standard", f.PM100Standard},
		{"pm1_0_env", f.PM10Env},
		{"pm2_5_env", f.PM25Env},
		{"pm10_env", f.PM100Env},
		{"particles_0_3um", f.Particles03um},
		{"particles_0_5um", f.Particles05um},
		{"particles_1_0um", f.Particles10um},
		{"particles_2_5um", f.Particles25um},
		{"particles_5_0um", f.Particles50um},
		{"particles_10um", f.Particles100um},
	}
}
