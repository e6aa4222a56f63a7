package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "aqmon", cfg.App.Name)
	assert.Equal(t, 9600, cfg.Sensor.Serial.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.Sensor.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.Sensor.Serial.ReadTimeout)
	assert.Equal(t, 115200, cfg.Control.Serial.Baud)
	assert.Equal(t, 16, cfg.Control.ReadSize)
	assert.Equal(t, "", cfg.Control.Serial.Device)
	assert.Equal(t, "file", cfg.Store.Backend)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aqmon.yaml")
	content := `
sensor:
  serial:
    device: /dev/ttyS1
  pollInterval: 250ms
control:
  serial:
    device: /dev/ttyACM0
  ack: false
store:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("AQMON_SENSOR_SERIAL_BAUD", "19200")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS1", cfg.Sensor.Serial.Device)
	assert.Equal(t, 19200, cfg.Sensor.Serial.Baud)
	assert.Equal(t, 250*time.Millisecond, cfg.Sensor.PollInterval)
	assert.Equal(t, "/dev/ttyACM0", cfg.Control.Serial.Device)
	assert.False(t, cfg.Control.Ack)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Sensor: SensorConfig{Serial: SerialConfig{Device: "/dev/ttyUSB0"}},
			Store:  StoreConfig{Backend: "memory"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"合法配置", func(c *Config) {}, false},
		{"未知后端", func(c *Config) { c.Store.Backend = "etcd" }, true},
		{"文件后端缺少目录", func(c *Config) { c.Store.Backend = "file" }, true},
		{"redis未启用", func(c *Config) { c.Store.Backend = "redis" }, true},
		{"redis已启用", func(c *Config) { c.Store.Backend = "redis"; c.Redis.Enabled = true }, false},
		{"缺少传感器串口", func(c *Config) { c.Sensor.Serial.Device = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
