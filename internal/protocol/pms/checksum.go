package pms

// Checksum 计算PMS5003帧校验和
// 算法：对给定字节逐个做 uint16 累加，溢出自动回绕（不饱和、不报错）
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}
