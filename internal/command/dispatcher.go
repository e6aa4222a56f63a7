package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/taoyao-code/aqmon/internal/metrics"
	"github.com/taoyao-code/aqmon/internal/settings"
	"go.uber.org/zap"
)

// ErrByteSource 控制通道读取失败，对当前分发循环是致命的
var ErrByteSource = errors.New("command: control channel read failed")

const (
	defaultReadSize     = 16
	defaultPollInterval = 500 * time.Millisecond
)

// Ack 可选的应答行
type Ack struct {
	OK      bool   `json:"ok"`
	Command string `json:"command,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Dispatcher 按行累积控制通道输入，解码命令并在配置存储锁内执行
type Dispatcher struct {
	store        *settings.Store
	logger       *zap.Logger
	metrics      *metrics.AppMetrics
	ack          io.Writer
	readSize     int
	pollInterval time.Duration

	buf []byte
}

// Option Dispatcher 可选项
type Option func(*Dispatcher)

// WithMetrics 上报命令指标
func WithMetrics(m *metrics.AppMetrics) Option { return func(d *Dispatcher) { d.metrics = m } }

// WithAck 每条命令执行后向 w 写一行 JSON 应答
func WithAck(w io.Writer) Option { return func(d *Dispatcher) { d.ack = w } }

// WithPollInterval 两次读取之间的休眠间隔
func WithPollInterval(iv time.Duration) Option {
	return func(d *Dispatcher) { d.pollInterval = iv }
}

// WithReadSize 单次读取的最大字节数
func WithReadSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.readSize = n
		}
	}
}

// NewDispatcher 创建命令分发器
func NewDispatcher(store *settings.Store, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		store:        store,
		logger:       logger,
		readSize:     defaultReadSize,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Buffered 当前缓冲中尚未成行的字节数
func (d *Dispatcher) Buffered() int { return len(d.buf) }

// Run 阻塞读取控制通道直到读错误或 ctx 取消
// 读错误包装为 ErrByteSource 返回；命令错误只记录日志
func (d *Dispatcher) Run(ctx context.Context, r io.Reader) error {
	chunk := make([]byte, d.readSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if d.metrics != nil {
				d.metrics.CommandBytesTotal.Add(float64(n))
			}
			d.Feed(ctx, chunk[:n])
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrByteSource, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}

// Feed 逐字节追加输入；遇到 '\n' 时把整段缓冲视为一行命令
// 缓冲不是合法 UTF-8 时不清空，继续等待后续输入
func (d *Dispatcher) Feed(ctx context.Context, chunk []byte) {
	for _, b := range chunk {
		d.buf = append(d.buf, b)
		if b != '\n' {
			continue
		}
		if !utf8.Valid(d.buf) {
			d.logger.Warn("control line is not valid utf-8, keeping buffer",
				zap.Int("buffered", len(d.buf)))
			continue
		}
		d.handleLine(ctx, d.buf[:len(d.buf)-1])
		d.buf = d.buf[:0]
	}
}

func (d *Dispatcher) handleLine(ctx context.Context, line []byte) {
	d.logger.Debug("got command line", zap.ByteString("line", line))

	cmd, err := Decode(line)
	if err != nil {
		d.logger.Error("error decoding command", zap.Error(err))
		d.observe("unknown", "decode_error")
		d.reply(Ack{OK: false, Error: err.Error()})
		return
	}

	if err := d.apply(ctx, cmd); err != nil {
		d.logger.Error("error executing command", zap.String("cmd", cmd.Name()), zap.Error(err))
		d.observe(cmd.Name(), "apply_error")
		d.reply(Ack{OK: false, Command: cmd.Name(), Error: err.Error()})
		return
	}
	d.observe(cmd.Name(), "ok")
	d.reply(Ack{OK: true, Command: cmd.Name()})
}

// apply 在配置存储锁内执行命令
func (d *Dispatcher) apply(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case SetWifiConfig:
		err := d.store.Do(ctx, func(kv settings.Backend) error {
			return settings.SaveWifiConfig(ctx, kv, c.Config)
		})
		d.observeStore("save", err)
		if err != nil {
			return err
		}
		d.logger.Info("wifi config updated", zap.String("ssid", c.Config.SSID))
		return nil
	default:
		return fmt.Errorf("command: no handler for %s", cmd.Name())
	}
}

func (d *Dispatcher) reply(a Ack) {
	if d.ack == nil {
		return
	}
	b, err := json.Marshal(a)
	if err != nil {
		return
	}
	if _, err := d.ack.Write(append(b, '\n')); err != nil {
		d.logger.Warn("write ack failed", zap.Error(err))
	}
}

func (d *Dispatcher) observe(cmd, result string) {
	if d.metrics != nil {
		d.metrics.CommandTotal.WithLabelValues(cmd, result).Inc()
	}
}

func (d *Dispatcher) observeStore(op string, err error) {
	if d.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	d.metrics.StoreOpsTotal.WithLabelValues(op, result).Inc()
}
