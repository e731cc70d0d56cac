package service

import (
	"fmt"
	"time"

	"panfm/core/db"
	dbinit "panfm/core/db/init"
	"panfm/core/internal/config"
	"panfm/core/internal/metrics"
	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

// FiredAlert 一次触发的告警及其规则
type FiredAlert struct {
	Event  *dbinit.AlertEvent
	Config *dbinit.AlertConfig
}

// Evaluator 告警评估器
type Evaluator struct {
	manager *db.Manager

	cooldownInfo     time.Duration
	cooldownWarning  time.Duration
	cooldownCritical time.Duration
}

// NewEvaluator 创建告警评估器
func NewEvaluator(manager *db.Manager, cfg *config.AlertConfig) *Evaluator {
	return &Evaluator{
		manager:          manager,
		cooldownInfo:     time.Duration(cfg.CooldownInfoMinutes) * time.Minute,
		cooldownWarning:  time.Duration(cfg.CooldownWarningMinutes) * time.Minute,
		cooldownCritical: time.Duration(cfg.CooldownCriticalMinutes) * time.Minute,
	}
}

// Evaluate 对一条样本执行全部启用规则（评估时钟使用样本时间戳）
func (e *Evaluator) Evaluate(sample *dbinit.Sample) ([]*FiredAlert, error) {
	// 维护窗口内硬静默：不产生事件，不写冷却
	muted, err := e.isMuted(sample.DeviceID, sample.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to check maintenance windows: %w", err)
	}
	if muted {
		metrics.AlertsSuppressed.WithLabelValues("maintenance").Inc()
		logger.Debug("设备处于维护窗口，跳过告警评估",
			zap.String("device_id", sample.DeviceID),
			zap.Time("sample_time", sample.Time))
		return nil, nil
	}

	configs, err := e.manager.DB.SQLite.ListActiveAlertConfigs(sample.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert configs: %w", err)
	}

	var fired []*FiredAlert
	for _, cfg := range configs {
		value, ok := metricValue(sample, cfg.MetricType)
		if !ok {
			continue
		}
		if !compare(value, cfg.Operator, cfg.ThresholdValue) {
			continue
		}

		// 冷却期内抑制（不刷新冷却窗口）
		cooldown, err := e.manager.DB.SQLite.GetCooldown(sample.DeviceID, cfg.ID)
		if err != nil {
			logger.Error("查询告警冷却失败", zap.String("config_id", cfg.ID), zap.Error(err))
			continue
		}
		if cooldown != nil && sample.Time.Before(cooldown.ExpiresAt) {
			metrics.AlertsSuppressed.WithLabelValues("cooldown").Inc()
			continue
		}

		message := fmt.Sprintf("设备 %s 指标 %s 当前值 %.2f %s 阈值 %.2f",
			sample.DeviceID, cfg.MetricType, value, cfg.Operator, cfg.ThresholdValue)

		event := &dbinit.AlertEvent{
			ConfigID:       cfg.ID,
			DeviceID:       sample.DeviceID,
			MetricType:     cfg.MetricType,
			Severity:       cfg.Severity,
			Message:        message,
			ActualValue:    value,
			ThresholdValue: cfg.ThresholdValue,
			TriggeredAt:    sample.Time,
		}
		if err := e.manager.DB.SQLite.CreateAlertEvent(event); err != nil {
			logger.Error("写入告警事件失败", zap.String("config_id", cfg.ID), zap.Error(err))
			continue
		}

		if err := e.manager.DB.SQLite.UpsertCooldown(&dbinit.AlertCooldown{
			DeviceID:        sample.DeviceID,
			ConfigID:        cfg.ID,
			LastTriggeredAt: sample.Time,
			ExpiresAt:       sample.Time.Add(e.cooldownFor(cfg.Severity)),
		}); err != nil {
			logger.Error("写入告警冷却失败", zap.String("config_id", cfg.ID), zap.Error(err))
		}

		metrics.AlertsFired.WithLabelValues(cfg.MetricType, cfg.Severity).Inc()
		logger.Warn("触发告警",
			zap.String("device_id", sample.DeviceID),
			zap.String("metric_type", cfg.MetricType),
			zap.String("severity", cfg.Severity),
			zap.Float64("actual", value),
			zap.Float64("threshold", cfg.ThresholdValue))

		fired = append(fired, &FiredAlert{Event: event, Config: cfg})
	}

	return fired, nil
}

// isMuted 判断设备在指定时刻是否落在启用的维护窗口内（设备级或全局）
func (e *Evaluator) isMuted(deviceID string, at time.Time) (bool, error) {
	windows, err := e.manager.DB.SQLite.ListEnabledMaintenanceWindows()
	if err != nil {
		return false, err
	}

	for _, w := range windows {
		if w.DeviceID.Valid && w.DeviceID.String != deviceID {
			continue
		}
		if !at.Before(w.StartTime) && !at.After(w.EndTime) {
			return true, nil
		}
	}

	return false, nil
}

// cooldownFor 按级别返回冷却时长
func (e *Evaluator) cooldownFor(severity string) time.Duration {
	switch severity {
	case "critical":
		return e.cooldownCritical
	case "warning":
		return e.cooldownWarning
	default:
		return e.cooldownInfo
	}
}

// metricValue 从样本中取出规则对应的指标值
func metricValue(sample *dbinit.Sample, metricType string) (float64, bool) {
	switch metricType {
	case "cpu":
		return sample.CPUPercent, true
	case "memory":
		return sample.MemoryPercent, true
	case "sessions":
		return float64(sample.SessionCount), true
	case "session_pct":
		if sample.SessionMax <= 0 {
			return 0, false
		}
		return float64(sample.SessionCount) / float64(sample.SessionMax) * 100, true
	case "throughput_in":
		return float64(sample.ThroughputInKbps), true
	case "throughput_out":
		return float64(sample.ThroughputOutKbps), true
	default:
		return 0, false
	}
}

// compare 按运算符比较实际值与阈值
func compare(value float64, operator string, threshold float64) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}
