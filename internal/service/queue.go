package service

import (
	"fmt"

	"panfm/core/db"
	dbinit "panfm/core/db/init"
	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

// QueueService 按需采集请求服务
type QueueService struct {
	manager *db.Manager
}

// NewQueueService 创建请求服务
func NewQueueService(manager *db.Manager) *QueueService {
	return &QueueService{manager: manager}
}

// Enqueue 为设备入队一条按需采集请求（同设备未终结请求去重）
func (q *QueueService) Enqueue(deviceID string) (*dbinit.CollectionRequest, error) {
	device, err := q.manager.DB.SQLite.GetDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if device == nil {
		return nil, fmt.Errorf("device not found: %s", deviceID)
	}
	if !device.Enabled {
		return nil, fmt.Errorf("device disabled: %s", deviceID)
	}

	request, err := q.manager.DB.SQLite.EnqueueCollectionRequest(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue request: %w", err)
	}

	logger.Info("按需采集请求已入队",
		zap.String("request_id", request.ID),
		zap.String("device_id", deviceID),
		zap.String("status", request.Status))

	return request, nil
}

// GetRequest 查询请求状态
func (q *QueueService) GetRequest(id string) (*dbinit.CollectionRequest, error) {
	return q.manager.DB.SQLite.GetCollectionRequest(id)
}
