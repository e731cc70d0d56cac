package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"panfm/core/db"
	dbinit "panfm/core/db/init"
	"panfm/core/internal/metrics"
	"panfm/core/internal/source"
	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

// Collector 采集器：对单台设备执行一轮 拉取→转换→入库→评估
type Collector struct {
	manager    *db.Manager
	source     source.Source
	evaluator  *Evaluator
	dispatcher *Dispatcher
	timeout    time.Duration
}

// NewCollector 创建采集器
func NewCollector(manager *db.Manager, src source.Source, evaluator *Evaluator, dispatcher *Dispatcher, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Collector{
		manager:    manager,
		source:     src,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		timeout:    timeout,
	}
}

// RunCycle 执行一次完整采集周期
func (c *Collector) RunCycle(ctx context.Context, deviceID, trigger string) (*dbinit.Sample, error) {
	start := time.Now()

	device, err := c.manager.DB.SQLite.GetDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if device == nil {
		return nil, fmt.Errorf("device not found: %s", deviceID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	snapshot, err := c.source.FetchSnapshot(fetchCtx, device)
	if err != nil {
		// 拉取失败不写样本，仅标记设备状态
		metrics.CollectionErrors.WithLabelValues(deviceID).Inc()
		if updateErr := c.manager.DB.SQLite.UpdateDeviceStatus(deviceID, "error"); updateErr != nil {
			logger.Error("更新设备状态失败", zap.String("device_id", deviceID), zap.Error(updateErr))
		}
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	sample := transform(deviceID, snapshot, time.Now().UTC())

	if err := c.manager.DB.SQLite.InsertSample(sample); err != nil {
		metrics.CollectionErrors.WithLabelValues(deviceID).Inc()
		return nil, fmt.Errorf("failed to persist sample: %w", err)
	}
	metrics.SamplesWritten.Inc()

	if err := c.manager.DB.SQLite.UpdateDeviceStatus(deviceID, "online"); err != nil {
		logger.Error("更新设备状态失败", zap.String("device_id", deviceID), zap.Error(err))
	}

	c.updateCache(deviceID, sample)

	// 同步评估，异步分发
	fired, err := c.evaluator.Evaluate(sample)
	if err != nil {
		logger.Error("告警评估失败", zap.String("device_id", deviceID), zap.Error(err))
	}
	for _, alert := range fired {
		go c.dispatchAlert(alert)
	}

	metrics.CollectionsTotal.WithLabelValues(deviceID, trigger).Inc()
	metrics.CollectionDuration.WithLabelValues(deviceID).Observe(time.Since(start).Seconds())

	logger.Info("采集完成",
		zap.String("device_id", deviceID),
		zap.String("trigger", trigger),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("alerts_fired", len(fired)))

	return sample, nil
}

// dispatchAlert 加载规则绑定的渠道并投递
func (c *Collector) dispatchAlert(alert *FiredAlert) {
	var channelIDs []string
	if alert.Config.ChannelIDs != "" {
		if err := json.Unmarshal([]byte(alert.Config.ChannelIDs), &channelIDs); err != nil {
			logger.Error("解析渠道列表失败", zap.String("config_id", alert.Config.ID), zap.Error(err))
			return
		}
	}
	if len(channelIDs) == 0 {
		return
	}

	channels, err := c.manager.DB.SQLite.ListEnabledChannelsByIDs(channelIDs)
	if err != nil {
		logger.Error("加载通知渠道失败", zap.String("config_id", alert.Config.ID), zap.Error(err))
		return
	}

	c.dispatcher.Dispatch(alert.Event, channels)
}

// updateCache 刷新Redis中的设备实时状态和最新样本
func (c *Collector) updateCache(deviceID string, sample *dbinit.Sample) {
	if !c.manager.HasCache() {
		return
	}

	ttl := 2 * c.timeout
	if ttl < 10*time.Minute {
		ttl = 10 * time.Minute
	}

	status := &dbinit.DeviceStatus{
		DeviceID:     deviceID,
		Online:       true,
		LastSample:   sample.Time,
		CPUPercent:   sample.CPUPercent,
		SessionCount: sample.SessionCount,
	}
	if err := c.manager.Cache.Redis.SetDeviceStatus(deviceID, status, ttl); err != nil {
		logger.Warn("缓存设备状态失败", zap.String("device_id", deviceID), zap.Error(err))
	}
	if err := c.manager.Cache.Redis.SetLatestSample(deviceID, sample, ttl); err != nil {
		logger.Warn("缓存最新样本失败", zap.String("device_id", deviceID), zap.Error(err))
	}
}

// transform 原始快照转换为样本：百分比裁剪到0-100，缺失字段取零值并告警
func transform(deviceID string, snapshot *source.Snapshot, at time.Time) *dbinit.Sample {
	sample := &dbinit.Sample{
		Time:          at,
		DeviceID:      deviceID,
		SWVersion:     snapshot.SWVersion,
		UptimeSeconds: snapshot.UptimeSeconds,
	}

	var missing []string

	if snapshot.CPUPercent != nil {
		sample.CPUPercent = clampPercent(*snapshot.CPUPercent)
	} else {
		missing = append(missing, "cpu_percent")
	}
	if snapshot.MemoryPercent != nil {
		sample.MemoryPercent = clampPercent(*snapshot.MemoryPercent)
	} else {
		missing = append(missing, "memory_percent")
	}
	if snapshot.SessionCount != nil {
		sample.SessionCount = int(*snapshot.SessionCount)
	} else {
		missing = append(missing, "session_count")
	}
	if snapshot.SessionMax != nil {
		sample.SessionMax = int(*snapshot.SessionMax)
	} else {
		missing = append(missing, "session_max")
	}
	if snapshot.ThroughputInKbps != nil {
		sample.ThroughputInKbps = int64(*snapshot.ThroughputInKbps)
	} else {
		missing = append(missing, "throughput_in_kbps")
	}
	if snapshot.ThroughputOutKbps != nil {
		sample.ThroughputOutKbps = int64(*snapshot.ThroughputOutKbps)
	} else {
		missing = append(missing, "throughput_out_kbps")
	}

	if len(snapshot.TopTalkers) > 0 {
		if data, err := json.Marshal(snapshot.TopTalkers); err == nil {
			sample.TopTalkers = sql.NullString{String: string(data), Valid: true}
		}
	}
	if len(snapshot.Extra) > 0 {
		if data, err := json.Marshal(snapshot.Extra); err == nil {
			sample.Extra = sql.NullString{String: string(data), Valid: true}
		}
	}

	if len(missing) > 0 {
		logger.Warn("快照字段缺失，使用零值",
			zap.String("device_id", deviceID),
			zap.Strings("fields", missing))
	}

	return sample
}

// clampPercent 百分比裁剪到[0,100]
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
