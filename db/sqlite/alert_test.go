package sqlite

import (
	"testing"
	"time"

	dbinit "panfm/core/db/init"
)

func TestListActiveAlertConfigs(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	configs := []*dbinit.AlertConfig{
		{DeviceID: "dev-1", MetricType: "cpu", Operator: ">", ThresholdValue: 80, Severity: "critical", Enabled: true},
		{DeviceID: "", MetricType: "memory", Operator: ">", ThresholdValue: 90, Severity: "warning", Enabled: true},
		{DeviceID: "dev-1", MetricType: "sessions", Operator: ">", ThresholdValue: 1000, Severity: "info", Enabled: false},
		{DeviceID: "dev-other", MetricType: "cpu", Operator: ">", ThresholdValue: 50, Severity: "info", Enabled: true},
	}
	for _, cfg := range configs {
		if err := db.CreateAlertConfig(cfg); err != nil {
			t.Fatalf("创建规则失败: %v", err)
		}
	}

	// 设备级 + 全局规则，排除禁用与其他设备
	active, err := db.ListActiveAlertConfigs("dev-1")
	if err != nil {
		t.Fatalf("查询规则失败: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active configs, got %d", len(active))
	}
}

func TestAlertEventLifecycle(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	cfg := &dbinit.AlertConfig{DeviceID: "dev-1", MetricType: "cpu", Operator: ">", ThresholdValue: 80, Severity: "critical", Enabled: true}
	if err := db.CreateAlertConfig(cfg); err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}

	event := &dbinit.AlertEvent{
		ConfigID:       cfg.ID,
		DeviceID:       "dev-1",
		MetricType:     "cpu",
		Severity:       "critical",
		Message:        "cpu high",
		ActualValue:    95,
		ThresholdValue: 80,
	}
	if err := db.CreateAlertEvent(event); err != nil {
		t.Fatalf("写入事件失败: %v", err)
	}
	if event.ID == "" {
		t.Fatal("事件ID应自动生成")
	}

	if err := db.AcknowledgeAlertEvent(event.ID, "ops"); err != nil {
		t.Fatalf("确认事件失败: %v", err)
	}
	// 重复确认应报错（条件更新0行）
	if err := db.AcknowledgeAlertEvent(event.ID, "ops2"); err == nil {
		t.Error("重复确认应报错")
	}

	if err := db.ResolveAlertEvent(event.ID, "load dropped"); err != nil {
		t.Fatalf("恢复事件失败: %v", err)
	}
	if err := db.ResolveAlertEvent(event.ID, "again"); err == nil {
		t.Error("重复恢复应报错")
	}

	events, err := db.ListAlertEvents("dev-1", 10)
	if err != nil {
		t.Fatalf("查询事件失败: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if !got.AcknowledgedAt.Valid || got.AcknowledgedBy.String != "ops" {
		t.Errorf("确认字段异常: %+v", got)
	}
	if !got.ResolvedAt.Valid || got.ResolveReason.String != "load dropped" {
		t.Errorf("恢复字段异常: %+v", got)
	}
}

func TestCooldownUpsert(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	cfg := &dbinit.AlertConfig{DeviceID: "dev-1", MetricType: "cpu", Operator: ">", ThresholdValue: 80, Severity: "critical", Enabled: true}
	if err := db.CreateAlertConfig(cfg); err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	cd := &dbinit.AlertCooldown{
		DeviceID:        "dev-1",
		ConfigID:        cfg.ID,
		LastTriggeredAt: now,
		ExpiresAt:       now.Add(10 * time.Minute),
	}
	if err := db.UpsertCooldown(cd); err != nil {
		t.Fatalf("写入冷却失败: %v", err)
	}

	// upsert 覆盖
	cd.ExpiresAt = now.Add(30 * time.Minute)
	if err := db.UpsertCooldown(cd); err != nil {
		t.Fatalf("覆盖冷却失败: %v", err)
	}

	got, err := db.GetCooldown("dev-1", cfg.ID)
	if err != nil {
		t.Fatalf("查询冷却失败: %v", err)
	}
	if got == nil {
		t.Fatal("冷却不存在")
	}
	if !got.ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Errorf("冷却到期时间未覆盖: %v", got.ExpiresAt)
	}

	deleted, err := db.DeleteExpiredCooldowns(now.Add(time.Hour))
	if err != nil {
		t.Fatalf("清理冷却失败: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}
