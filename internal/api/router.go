package api

import (
	"panfm/core/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 设置路由
func SetupRouter(app *App) *gin.Engine {
	// 设置Gin模式
	if app.Config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"cache":  app.DB.HasCache(),
		})
	})

	// Prometheus 监控指标
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	{
		deviceHandler := NewDeviceHandler(app)
		schedulerHandler := NewSchedulerHandler(app)

		devices := v1.Group("/devices")
		{
			devices.POST("/:id/collect", deviceHandler.Collect)
			devices.GET("/:id/latest", deviceHandler.LatestSample)
			devices.GET("/:id/samples", deviceHandler.ListSamples)
			devices.GET("/:id/alerts", deviceHandler.ListAlerts)
		}

		requests := v1.Group("/requests")
		{
			requests.GET("/:id", deviceHandler.GetRequest)
		}

		alerts := v1.Group("/alerts")
		{
			alerts.POST("/:id/ack", deviceHandler.AcknowledgeAlert)
			alerts.POST("/:id/resolve", deviceHandler.ResolveAlert)
		}

		v1.GET("/scheduler/stats", schedulerHandler.Stats)
	}

	return router
}
