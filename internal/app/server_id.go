package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateInstanceID 生成进程实例ID
// 优先使用环境变量 AQMON_INSTANCE_ID，否则 aqmon-{hostname}-{uuid前8位}
func GenerateInstanceID() string {
	if id := os.Getenv("AQMON_INSTANCE_ID"); id != "" {
		return id
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("aqmon-%s-%s", hostname, uuid.New().String()[:8])
}
