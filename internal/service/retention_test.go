package service

import (
	"testing"
	"time"

	dbinit "panfm/core/db/init"
	"panfm/core/internal/config"
)

func TestRunCleanup(t *testing.T) {
	manager := newTestManager(t)
	createTestDevice(t, manager, "dev-1")

	now := time.Now().UTC().Truncate(time.Second)

	// 过期样本 + 新样本
	old := &dbinit.Sample{Time: now.AddDate(0, 0, -40), DeviceID: "dev-1"}
	fresh := &dbinit.Sample{Time: now, DeviceID: "dev-1", CPUPercent: 7}
	if err := manager.DB.SQLite.InsertSample(old); err != nil {
		t.Fatalf("写入样本失败: %v", err)
	}
	if err := manager.DB.SQLite.InsertSample(fresh); err != nil {
		t.Fatalf("写入样本失败: %v", err)
	}

	// 过期告警事件
	cfg := cpuConfig(t, manager, "dev-1", 80)
	event := &dbinit.AlertEvent{
		ConfigID:       cfg.ID,
		DeviceID:       "dev-1",
		MetricType:     "cpu",
		Severity:       "critical",
		Message:        "old event",
		ActualValue:    90,
		ThresholdValue: 80,
		TriggeredAt:    now.AddDate(0, 0, -100),
	}
	if err := manager.DB.SQLite.CreateAlertEvent(event); err != nil {
		t.Fatalf("写入事件失败: %v", err)
	}

	// 已过期冷却
	if err := manager.DB.SQLite.UpsertCooldown(&dbinit.AlertCooldown{
		DeviceID:        "dev-1",
		ConfigID:        cfg.ID,
		LastTriggeredAt: now.Add(-2 * time.Hour),
		ExpiresAt:       now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("写入冷却失败: %v", err)
	}

	retention := NewRetentionService(manager, &config.RetentionConfig{
		Days:           30,
		AlertEventDays: 90,
	})

	if err := retention.RunCleanup(); err != nil {
		t.Fatalf("清理失败: %v", err)
	}

	latest, _ := manager.DB.SQLite.GetLatestSample("dev-1")
	if latest == nil || latest.CPUPercent != 7 {
		t.Error("保留期内样本不应被清理")
	}
	samples, _ := manager.DB.SQLite.ListSamples("dev-1", now.AddDate(0, 0, -60), now.Add(time.Hour), 100)
	if len(samples) != 1 {
		t.Errorf("过期样本应被清理, got %d", len(samples))
	}

	events, _ := manager.DB.SQLite.ListAlertEvents("dev-1", 100)
	if len(events) != 0 {
		t.Errorf("过期事件应被清理, got %d", len(events))
	}

	if cd, _ := manager.DB.SQLite.GetCooldown("dev-1", cfg.ID); cd != nil {
		t.Error("过期冷却应被清理")
	}
}
