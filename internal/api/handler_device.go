package api

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"panfm/core/internal/api/response"

	"github.com/gin-gonic/gin"
)

// DeviceHandler 设备数据处理器
type DeviceHandler struct {
	app *App
}

// NewDeviceHandler 创建设备数据处理器
func NewDeviceHandler(app *App) *DeviceHandler {
	return &DeviceHandler{app: app}
}

// Collect 为设备入队一条按需采集请求
func (h *DeviceHandler) Collect(c *gin.Context) {
	deviceID := c.Param("id")

	request, err := h.app.Queue.Enqueue(deviceID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.GinNotFound(c, "设备不存在", err)
			return
		}
		if strings.Contains(err.Error(), "disabled") {
			response.GinConflict(c, "设备未启用采集", err)
			return
		}
		response.GinInternalError(c, "入队采集请求失败", err)
		return
	}

	response.GinAccepted(c, request)
}

// GetRequest 查询按需采集请求状态
func (h *DeviceHandler) GetRequest(c *gin.Context) {
	id := c.Param("id")

	request, err := h.app.Queue.GetRequest(id)
	if err != nil {
		response.GinInternalError(c, "查询请求失败", err)
		return
	}
	if request == nil {
		response.GinNotFound(c, "请求不存在")
		return
	}

	response.GinSuccess(c, request)
}

// LatestSample 查询设备最新样本
func (h *DeviceHandler) LatestSample(c *gin.Context) {
	deviceID := c.Param("id")

	// 缓存优先
	if h.app.DB.HasCache() {
		if sample, err := h.app.DB.Cache.Redis.GetLatestSample(deviceID); err == nil && sample != nil {
			response.GinSuccess(c, sample)
			return
		}
	}

	sample, err := h.app.DB.DB.SQLite.GetLatestSample(deviceID)
	if err != nil {
		response.GinInternalError(c, "查询样本失败", err)
		return
	}
	if sample == nil {
		response.GinNotFound(c, "设备暂无样本")
		return
	}

	response.GinSuccess(c, sample)
}

// ListSamples 查询设备历史样本
func (h *DeviceHandler) ListSamples(c *gin.Context) {
	deviceID := c.Param("id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.GinBadRequest(c, "from 时间格式错误", err)
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.GinBadRequest(c, "to 时间格式错误", err)
			return
		}
		to = t
	}

	samples, err := h.app.DB.DB.SQLite.ListSamples(deviceID, from, to, limit)
	if err != nil {
		response.GinInternalError(c, "查询样本失败", err)
		return
	}

	response.GinSuccess(c, gin.H{
		"data":  samples,
		"count": len(samples),
	})
}

// ListAlerts 查询设备告警事件
func (h *DeviceHandler) ListAlerts(c *gin.Context) {
	deviceID := c.Param("id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	events, err := h.app.DB.DB.SQLite.ListAlertEvents(deviceID, limit)
	if err != nil {
		response.GinInternalError(c, "查询告警事件失败", err)
		return
	}

	response.GinSuccess(c, gin.H{
		"data":  events,
		"count": len(events),
	})
}

// AcknowledgeAlert 确认告警事件
func (h *DeviceHandler) AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		By string `json:"by" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.GinBadRequest(c, "参数错误", err)
		return
	}

	if err := h.app.DB.DB.SQLite.AcknowledgeAlertEvent(id, req.By); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.GinNotFound(c, "事件不存在或已确认")
			return
		}
		response.GinInternalError(c, "确认告警失败", err)
		return
	}

	response.GinSuccessWithMessage(c, "告警已确认", nil)
}

// ResolveAlert 恢复告警事件
func (h *DeviceHandler) ResolveAlert(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.app.DB.DB.SQLite.ResolveAlertEvent(id, req.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.GinNotFound(c, "事件不存在或已恢复")
			return
		}
		response.GinInternalError(c, "恢复告警失败", err)
		return
	}

	response.GinSuccessWithMessage(c, "告警已恢复", nil)
}
