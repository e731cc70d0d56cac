package service

import (
	"time"

	"panfm/core/db"
	"panfm/core/internal/config"
	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

// RetentionService 数据保留清理服务
type RetentionService struct {
	manager        *db.Manager
	sampleDays     int
	alertEventDays int
}

// NewRetentionService 创建保留清理服务
func NewRetentionService(manager *db.Manager, cfg *config.RetentionConfig) *RetentionService {
	sampleDays := cfg.Days
	if sampleDays <= 0 {
		sampleDays = 30
	}
	alertEventDays := cfg.AlertEventDays
	if alertEventDays <= 0 {
		alertEventDays = 90
	}

	return &RetentionService{
		manager:        manager,
		sampleDays:     sampleDays,
		alertEventDays: alertEventDays,
	}
}

// RunCleanup 执行一轮保留清理
func (r *RetentionService) RunCleanup() error {
	now := time.Now().UTC()

	samples, err := r.manager.DB.SQLite.DeleteSamplesBefore(now.AddDate(0, 0, -r.sampleDays))
	if err != nil {
		logger.Error("清理过期样本失败", zap.Error(err))
		return err
	}

	events, err := r.manager.DB.SQLite.DeleteAlertEventsBefore(now.AddDate(0, 0, -r.alertEventDays))
	if err != nil {
		logger.Error("清理过期告警事件失败", zap.Error(err))
		return err
	}

	cooldowns, err := r.manager.DB.SQLite.DeleteExpiredCooldowns(now)
	if err != nil {
		logger.Error("清理过期告警冷却失败", zap.Error(err))
		return err
	}

	// 终结态请求保留1小时供状态查询
	requests, err := r.manager.DB.SQLite.DeleteTerminalRequestsBefore(now.Add(-1 * time.Hour))
	if err != nil {
		logger.Error("清理终结态采集请求失败", zap.Error(err))
		return err
	}

	logger.Info("保留清理完成",
		zap.Int64("samples", samples),
		zap.Int64("alert_events", events),
		zap.Int64("cooldowns", cooldowns),
		zap.Int64("requests", requests))

	return nil
}
