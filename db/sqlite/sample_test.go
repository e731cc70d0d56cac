package sqlite

import (
	"testing"
	"time"

	dbinit "panfm/core/db/init"
)

func TestInsertSampleIdempotent(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	at := time.Now().UTC().Truncate(time.Second)

	first := &dbinit.Sample{
		Time:       at,
		DeviceID:   "dev-1",
		CPUPercent: 40,
	}
	if err := db.InsertSample(first); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}

	// 同一 (device_id, time) 重放，应覆盖而非报错
	replay := &dbinit.Sample{
		Time:       at,
		DeviceID:   "dev-1",
		CPUPercent: 55,
	}
	if err := db.InsertSample(replay); err != nil {
		t.Fatalf("重放写入失败: %v", err)
	}

	latest, err := db.GetLatestSample("dev-1")
	if err != nil {
		t.Fatalf("查询最新样本失败: %v", err)
	}
	if latest == nil {
		t.Fatal("样本不存在")
	}
	if latest.CPUPercent != 55 {
		t.Errorf("expected cpu 55 after replay, got %v", latest.CPUPercent)
	}

	samples, err := db.ListSamples("dev-1", at.Add(-time.Hour), at.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("查询样本失败: %v", err)
	}
	if len(samples) != 1 {
		t.Errorf("重放后应只有1条样本, got %d", len(samples))
	}
}

func TestGetLatestSample(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	base := time.Now().UTC().Truncate(time.Second)
	for i, cpu := range []float64{10, 20, 30} {
		sample := &dbinit.Sample{
			Time:       base.Add(time.Duration(i) * time.Minute),
			DeviceID:   "dev-1",
			CPUPercent: cpu,
		}
		if err := db.InsertSample(sample); err != nil {
			t.Fatalf("写入样本失败: %v", err)
		}
	}

	latest, err := db.GetLatestSample("dev-1")
	if err != nil {
		t.Fatalf("查询最新样本失败: %v", err)
	}
	if latest.CPUPercent != 30 {
		t.Errorf("expected latest cpu 30, got %v", latest.CPUPercent)
	}

	none, err := db.GetLatestSample("no-such-device")
	if err != nil {
		t.Fatalf("查询无样本设备出错: %v", err)
	}
	if none != nil {
		t.Error("无样本设备应返回nil")
	}
}

func TestListSamplesOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		sample := &dbinit.Sample{
			Time:     base.Add(time.Duration(i) * time.Minute),
			DeviceID: "dev-1",
		}
		if err := db.InsertSample(sample); err != nil {
			t.Fatalf("写入样本失败: %v", err)
		}
	}

	samples, err := db.ListSamples("dev-1", base, base.Add(time.Hour), 3)
	if err != nil {
		t.Fatalf("查询样本失败: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Time.Before(samples[i-1].Time) {
			t.Error("样本应按时间升序")
		}
	}
}

func TestDeleteSamplesBefore(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	now := time.Now().UTC().Truncate(time.Second)
	old := &dbinit.Sample{Time: now.AddDate(0, 0, -40), DeviceID: "dev-1"}
	fresh := &dbinit.Sample{Time: now, DeviceID: "dev-1", CPUPercent: 12}
	if err := db.InsertSample(old); err != nil {
		t.Fatalf("写入样本失败: %v", err)
	}
	if err := db.InsertSample(fresh); err != nil {
		t.Fatalf("写入样本失败: %v", err)
	}

	deleted, err := db.DeleteSamplesBefore(now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("清理样本失败: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	latest, _ := db.GetLatestSample("dev-1")
	if latest == nil || latest.CPUPercent != 12 {
		t.Error("截止时间之后的样本不应被清理")
	}
}
