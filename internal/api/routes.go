package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/aqmon/internal/api/middleware"
	cfgpkg "github.com/taoyao-code/aqmon/internal/config"
)

// RegisterRoutes 注册只读查询与实时推送路由
func RegisterRoutes(r *gin.Engine, h *Handler, live http.Handler, authCfg cfgpkg.APIAuthConfig, logger *zap.Logger) {
	if r == nil || h == nil {
		return
	}
	auth := middleware.APIKeyAuth(authCfg, logger)
	if authCfg.Enabled {
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	v1 := r.Group("/api/v1", middleware.CORS(), auth)
	v1.GET("/readings/latest", h.LatestReading)
	v1.GET("/config/wifi", h.WifiConfig)

	if live != nil {
		r.GET("/ws/readings", auth, gin.WrapH(live))
	}
}
