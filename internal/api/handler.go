package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/aqmon/internal/settings"
	"github.com/taoyao-code/aqmon/internal/telemetry"
)

// LatestSource 最新读数来源，由 telemetry.Hub 实现
type LatestSource interface {
	Latest() (telemetry.Reading, bool)
}

// Handler 只读API处理器
type Handler struct {
	readings LatestSource
	kv       settings.Backend
	logger   *zap.Logger
}

// NewHandler 创建只读API处理器
func NewHandler(readings LatestSource, kv settings.Backend, logger *zap.Logger) *Handler {
	return &Handler{readings: readings, kv: kv, logger: logger}
}

// WifiView 对外展示的 Wi-Fi 配置，密码脱敏
type WifiView struct {
	SSID       string `json:"ssid"`
	Password   string `json:"password"`
	Configured bool   `json:"configured"`
}

// LatestReading 返回最近一帧读数
// GET /api/v1/readings/latest
func (h *Handler) LatestReading(c *gin.Context) {
	r, ok := h.readings.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reading yet"})
		return
	}
	c.JSON(http.StatusOK, r)
}

// WifiConfig 返回当前持久化的 Wi-Fi 配置
// GET /api/v1/config/wifi
func (h *Handler) WifiConfig(c *gin.Context) {
	cfg, err := settings.LoadWifiConfig(c.Request.Context(), h.kv)
	if err != nil {
		h.logger.Error("load wifi config failed", zap.Error(err))
		code := http.StatusInternalServerError
		if errors.Is(err, settings.ErrConfigCorrupt) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, WifiView{
		SSID:       cfg.SSID,
		Password:   maskSecret(cfg.Password),
		Configured: cfg.SSID != "",
	})
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
