package pms

import (
	"errors"
	"fmt"
	"io"
)

// ErrByteSource 字节源读取失败，对当前读取会话是致命的
var ErrByteSource = errors.New("pms: byte source read failed")

// ResyncHook 每次解码失败、窗口前移一个字节前回调
type ResyncHook func(reason error)

// Stats 读取会话统计
type Stats struct {
	Frames            uint64
	Resyncs           uint64
	InvalidStartBytes uint64
	InvalidChecksums  uint64
	BytesRead         uint64
}

// Reader 驱动 Window + Decode，在可能错位的字节流上持续产出帧
// 解码失败时丢弃一个字节并重试，直到找到合法帧边界
type Reader struct {
	win      *Window
	onResync ResyncHook
	stats    Stats
	skipped  int
}

// ReaderOption Reader 可选项
type ReaderOption func(*Reader)

// WithResyncHook 安装重同步回调（日志/指标）
func WithResyncHook(h ResyncHook) ReaderOption {
	return func(r *Reader) { r.onResync = h }
}

// NewReader 创建帧读取器
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{win: NewWindow(src)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next 阻塞直至解出下一帧
// 每次调用都从一个空窗口开始，上一帧已消费的字节不会复用
func (r *Reader) Next() (Frame, error) {
	r.win.Reset()
	r.skipped = 0
	for {
		raw, err := r.win.Snapshot()
		if err != nil {
			return Frame{}, r.sourceErr(err)
		}
		f, err := Decode(raw)
		if err == nil {
			r.stats.Frames++
			r.stats.BytesRead = r.win.BytesRead()
			return f, nil
		}

		r.countResync(err)
		if r.onResync != nil {
			r.onResync(err)
		}
		if _, err := r.win.ReadByte(); err != nil {
			return Frame{}, r.sourceErr(err)
		}
	}
}

// Skipped 最近一次 Next 调用中执行的重同步步数
func (r *Reader) Skipped() int { return r.skipped }

// Stats 返回累计统计快照
func (r *Reader) Stats() Stats { return r.stats }

func (r *Reader) countResync(reason error) {
	r.skipped++
	r.stats.Resyncs++
	switch {
	case errors.Is(reason, ErrInvalidStartByte):
		r.stats.InvalidStartBytes++
	case errors.Is(reason, ErrInvalidChecksum):
		r.stats.InvalidChecksums++
	}
}

func (r *Reader) sourceErr(err error) error {
	r.stats.BytesRead = r.win.BytesRead()
	return fmt.Errorf("%w: %w", ErrByteSource, err)
}
