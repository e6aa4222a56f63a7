package app

import (
	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/aqmon/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器
func NewHealthAggregator(checkers ...health.Checker) *health.Aggregator {
	return health.NewAggregator(checkers...)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
