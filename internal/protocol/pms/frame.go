package pms

import (
	"encoding/binary"
	"errors"
)

const (
	// FrameSize 线上帧固定长度
	FrameSize = 32
	// StartByte 帧起始字节
	StartByte byte = 0x42
	// SecondStartByte 约定的第二起始字节，解码时不校验
	SecondStartByte byte = 0x4D

	checksumOffset = FrameSize - 2
	fieldCount     = 14
)

var (
	ErrInvalidStartByte = errors.New("invalid start byte (should be 0x42)")
	ErrInvalidChecksum  = errors.New("invalid checksum on PMS5003 data frame")
)

// Frame 一帧解码后的传感器数据，字段均为大端 uint16
type Frame struct {
	FrameLen       uint16 `json:"frame_len"`
	PM10Standard   uint16 `json:"pm10_standard"`  // 标准颗粒物 PM1.0
	PM25Standard   uint16 `json:"pm25_standard"`  // 标准颗粒物 PM2.5
	PM100Standard  uint16 `json:"pm100_standard"` // 标准颗粒物 PM10
	PM10Env        uint16 `json:"pm10_env"`       // 大气环境 PM1.0
	PM25Env        uint16 `json:"pm25_env"`
	PM100Env       uint16 `json:"pm100_env"`
	Particles03um  uint16 `json:"particles_03um"` // 0.1L 空气中 >0.3um 颗粒数
	Particles05um  uint16 `json:"particles_05um"`
	Particles10um  uint16 `json:"particles_10um"`
	Particles25um  uint16 `json:"particles_25um"`
	Particles50um  uint16 `json:"particles_50um"`
	Particles100um uint16 `json:"particles_100um"`
	Reserved       uint16 `json:"reserved"`
	Checksum       uint16 `json:"checksum"`
}

// fields 按线上顺序返回14个数据字段的指针
func (f *Frame) fields() [fieldCount]*uint16 {
	return [fieldCount]*uint16{
		&f.FrameLen,
		&f.PM10Standard, &f.PM25Standard, &f.PM100Standard,
		&f.PM10Env, &f.PM25Env, &f.PM100Env,
		&f.Particles03um, &f.Particles05um, &f.Particles10um,
		&f.Particles25um, &f.Particles50um, &f.Particles100um,
		&f.Reserved,
	}
}

// Decode 校验并解码一帧（纯函数，无I/O）
// 仅校验首字节 0x42；校验和覆盖 raw[0:30]，存放于 raw[30:32]（大端）
func Decode(raw [FrameSize]byte) (Frame, error) {
	if raw[0] != StartByte {
		return Frame{}, ErrInvalidStartByte
	}
	want := binary.BigEndian.Uint16(raw[checksumOffset:])
	if got := Checksum(raw[:checksumOffset]); got != want {
		return Frame{}, ErrInvalidChecksum
	}

	var f Frame
	for i, p := range f.fields() {
		off := 2 + i*2
		*p = binary.BigEndian.Uint16(raw[off : off+2])
	}
	f.Checksum = want
	return f, nil
}

// Encode 将数据字段编码为合法线上帧（起始字节 0x42 0x4D，校验和重新计算）
// 传入的 Checksum 字段被忽略
func Encode(f Frame) [FrameSize]byte {
	var raw [FrameSize]byte
	raw[0] = StartByte
	raw[1] = SecondStartByte
	for i, p := range f.fields() {
		off := 2 + i*2
		binary.BigEndian.PutUint16(raw[off:off+2], *p)
	}
	binary.BigEndian.PutUint16(raw[checksumOffset:], Checksum(raw[:checksumOffset]))
	return raw
}

// MarshalBinary 实现 encoding.BinaryMarshaler
func (f Frame) MarshalBinary() ([]byte, error) {
	raw := Encode(f)
	return raw[:], nil
}
