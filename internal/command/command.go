package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/taoyao-code/aqmon/internal/settings"
)

// ErrCommandDecode 命令行无法解码（标签或负载畸形），可恢复
var ErrCommandDecode = errors.New("command: malformed command")

// Command 控制通道命令（封闭的标签联合）
// 线上格式为外部标签 JSON：{"<Name>": <payload>}
type Command interface {
	Name() string
	isCommand()
}

// SetWifiConfig 整体替换已保存的 Wi-Fi 配置
type SetWifiConfig struct {
	Config settings.WifiConfig
}

func (SetWifiConfig) Name() string { return "SetWifiConfig" }
func (SetWifiConfig) isCommand()   {}

type payloadDecoder func(json.RawMessage) (Command, error)

// decoders 标签 -> 负载解码器；新增命令只需在此增加一项并在 apply 中增加分支
var decoders = map[string]payloadDecoder{
	SetWifiConfig{}.Name(): decodeSetWifiConfig,
}

// Decode 解析一行命令文本（不含结尾换行）
// 顶层必须是只含一个标签的对象；重复键视为错误
func Decode(line []byte) (Command, error) {
	tagged, err := objectFields(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommandDecode, err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one tag, got %d", ErrCommandDecode, len(tagged))
	}
	for tag, payload := range tagged {
		dec, ok := decoders[tag]
		if !ok {
			return nil, fmt.Errorf("%w: unknown variant %q", ErrCommandDecode, tag)
		}
		cmd, err := dec(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCommandDecode, tag, err)
		}
		return cmd, nil
	}
	return nil, ErrCommandDecode
}

// Encode 编码为一行命令文本（不含结尾换行）
func Encode(cmd Command) ([]byte, error) {
	var payload any
	switch c := cmd.(type) {
	case SetWifiConfig:
		payload = c.Config
	case *SetWifiConfig:
		payload = c.Config
	default:
		return nil, fmt.Errorf("command: cannot encode %T", cmd)
	}
	return json.Marshal(map[string]any{cmd.Name(): payload})
}

func decodeSetWifiConfig(raw json.RawMessage) (Command, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}
	ssid, err := stringField(fields, "ssid")
	if err != nil {
		return nil, err
	}
	password, err := stringField(fields, "password")
	if err != nil {
		return nil, err
	}
	return SetWifiConfig{Config: settings.WifiConfig{SSID: ssid, Password: password}}, nil
}

// objectFields 按原始键名拆分一个 JSON 对象
// 键名区分大小写；重复键、非对象与尾随数据都是错误
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate field `%s`", key)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		fields[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing characters")
	}
	return fields, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("missing field `%s`", name)
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("field `%s`: %w", name, err)
	}
	if v == nil {
		return "", fmt.Errorf("field `%s`: invalid type: null, expected a string", name)
	}
	return *v, nil
}
