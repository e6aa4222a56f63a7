package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	gobug "go.bug.st/serial"
)

// portHandle 命令行工具用到的串口能力
type portHandle interface {
	SetReadTimeout(timeout time.Duration) error
	Write([]byte) (int, error)
	Read([]byte) (int, error)
	Close() error
}

// 测试中替换
var (
	openPort     = func(name string, mode *gobug.Mode) (portHandle, error) { return gobug.Open(name, mode) }
	getPortsList = gobug.GetPortsList
)

const readPoll = 100 * time.Millisecond

var errNoPorts = errors.New("no serial ports found")

// choosePort 未指定端口时选择枚举到的第一个
func choosePort(requested string) (string, []string, error) {
	ports, err := getPortsList()
	if err != nil {
		return "", nil, fmt.Errorf("list serial ports: %w", err)
	}
	if requested != "" {
		return requested, ports, nil
	}
	if len(ports) == 0 {
		return "", nil, errNoPorts
	}
	return ports[0], ports, nil
}

// exchange 写入一行命令并读取一行应答
// 设备未开启应答时在 timeout 后返回空字符串
func exchange(p portHandle, line []byte, timeout time.Duration) (string, error) {
	if err := writeAll(p, line); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}
	if err := p.SetReadTimeout(readPoll); err != nil {
		return "", fmt.Errorf("set read timeout: %w", err)
	}

	var reply []byte
	buf := make([]byte, 64)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, err := p.Read(buf)
		if err != nil {
			return "", fmt.Errorf("read reply: %w", err)
		}
		reply = append(reply, buf[:n]...)
		if i := bytes.IndexByte(reply, '\n'); i >= 0 {
			return string(reply[:i]), nil
		}
	}
	return string(reply), nil
}

// writeAll 循环写入直到整行写完
func writeAll(p portHandle, b []byte) error {
	for len(b) > 0 {
		n, err := p.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
