package pms

import (
	"io"
	"time"
)

// zeroReadBackoff 字节源返回 (0, nil) 时的等待间隔
// 带读超时的串口在无数据时会这样返回
const zeroReadBackoff = 2 * time.Millisecond

// Window 固定容量的滑动字节窗口（环形缓冲，不做动态扩容）
// 窗口始终为空或在 Fill 之后恰好为满，由单个读取会话独占
type Window struct {
	src  io.Reader
	buf  [FrameSize]byte
	head int
	n    int
	one  [1]byte

	read uint64
}

// NewWindow 创建窗口，src 为阻塞字节源
func NewWindow(src io.Reader) *Window {
	return &Window{src: src}
}

// Len 当前缓冲的字节数
func (w *Window) Len() int { return w.n }

// Full 窗口是否已满
func (w *Window) Full() bool { return w.n == FrameSize }

// BytesRead 自创建以来从字节源读出的总字节数
func (w *Window) BytesRead() uint64 { return w.read }

// Reset 清空窗口，下一次 Snapshot 将重新读满
func (w *Window) Reset() {
	w.head = 0
	w.n = 0
}

// Fill 逐字节阻塞读取，直到窗口恰好为满
// 字节源的任何错误原样返回，不在内部重试
func (w *Window) Fill() error {
	for w.n < FrameSize {
		b, err := w.next()
		if err != nil {
			return err
		}
		w.buf[(w.head+w.n)%FrameSize] = b
		w.n++
	}
	return nil
}

// ReadByte 弹出最旧的一个字节并立即补齐窗口
func (w *Window) ReadByte() (byte, error) {
	if err := w.Fill(); err != nil {
		return 0, err
	}
	b := w.buf[w.head]
	w.head = (w.head + 1) % FrameSize
	w.n--
	if err := w.Fill(); err != nil {
		return b, err
	}
	return b, nil
}

// Snapshot 读满后按顺序返回当前窗口内容，不消费任何字节
func (w *Window) Snapshot() ([FrameSize]byte, error) {
	var out [FrameSize]byte
	if err := w.Fill(); err != nil {
		return out, err
	}
	for i := 0; i < FrameSize; i++ {
		out[i] = w.buf[(w.head+i)%FrameSize]
	}
	return out, nil
}

// next 从字节源读取一个字节；(0, nil) 视为尚无数据，退避后继续等待
func (w *Window) next() (byte, error) {
	for {
		n, err := w.src.Read(w.one[:])
		if n == 1 {
			w.read++
			return w.one[0], nil
		}
		if err != nil {
			return 0, err
		}
		time.Sleep(zeroReadBackoff)
	}
}
