package api

import (
	"panfm/core/internal/api/response"

	"github.com/gin-gonic/gin"
)

// SchedulerHandler 调度器处理器
type SchedulerHandler struct {
	app *App
}

// NewSchedulerHandler 创建调度器处理器
func NewSchedulerHandler(app *App) *SchedulerHandler {
	return &SchedulerHandler{app: app}
}

// Stats 导出任务统计
func (h *SchedulerHandler) Stats(c *gin.Context) {
	response.GinSuccess(c, h.app.Scheduler.Snapshot())
}
