// Package serialport 串口打开与抽象，PMS5003 与控制通道共用
package serialport

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tarm/serial"

	cfgpkg "github.com/taoyao-code/aqmon/internal/config"
)

// Port 串口抽象：真机使用 tarm/serial，测试中可替换为任意 ReadWriteCloser
type Port interface {
	io.ReadWriteCloser
}

// Open 按配置打开串口，8N1
func Open(cfg cfgpkg.SerialConfig) (Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serialport: device is empty")
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}
	return p, nil
}

// stdio 以标准输入/输出充当控制通道
type stdio struct {
	in  *os.File
	out *os.File
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdio) Close() error                { return nil }

// OpenControl 打开控制通道；未配置设备时回退到 stdin/stdout
func OpenControl(cfg cfgpkg.SerialConfig) (Port, error) {
	if cfg.Device == "" {
		return stdio{in: os.Stdin, out: os.Stdout}, nil
	}
	return Open(cfg)
}

// IsStdio 控制通道是否使用标准输入/输出
func IsStdio(cfg cfgpkg.SerialConfig) bool { return cfg.Device == "" }
