package settings

import (
	"context"
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// WifiConfigKey Wi-Fi 配置的存储键
const WifiConfigKey = "WIFI_CONFIG"

var (
	errTruncated   = errors.New("truncated string field")
	errInvalidUTF8 = errors.New("string field is not valid utf-8")
)

// WifiConfig Wi-Fi 连接凭据，SetWifiConfig 命令整体替换
type WifiConfig struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// MarshalBinary 紧凑二进制格式：每个字段为 LEB128 varint 长度 + UTF-8 字节
func (c WifiConfig) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, len(c.SSID)+len(c.Password)+2*binary.MaxVarintLen16)
	buf = appendString(buf, c.SSID)
	buf = appendString(buf, c.Password)
	return buf, nil
}

// UnmarshalBinary 解析 MarshalBinary 的输出；末尾多余字节忽略
func (c *WifiConfig) UnmarshalBinary(data []byte) error {
	ssid, rest, err := readString(data)
	if err != nil {
		return err
	}
	password, _, err := readString(rest)
	if err != nil {
		return err
	}
	c.SSID = ssid
	c.Password = password
	return nil
}

// LoadWifiConfig 读取 Wi-Fi 配置，未配置时返回空配置
func LoadWifiConfig(ctx context.Context, kv Backend) (WifiConfig, error) {
	return Load[WifiConfig](ctx, kv, WifiConfigKey)
}

// SaveWifiConfig 写入 Wi-Fi 配置
func SaveWifiConfig(ctx context.Context, kv Backend, c WifiConfig) error {
	return Save(ctx, kv, WifiConfigKey, c)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readString(data []byte) (string, []byte, error) {
	n, sz := binary.Uvarint(data)
	if sz <= 0 {
		return "", nil, errTruncated
	}
	data = data[sz:]
	if n > uint64(len(data)) {
		return "", nil, errTruncated
	}
	s := data[:n]
	if !utf8.Valid(s) {
		return "", nil, errInvalidUTF8
	}
	return string(s), data[n:], nil
}
