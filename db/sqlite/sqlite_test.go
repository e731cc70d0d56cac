package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	dbinit "panfm/core/db/init"
)

// newTestDB 创建测试用SQLite实例
func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("创建测试数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// createTestDevice 创建测试设备
func createTestDevice(t *testing.T, db *SQLiteDB, id string) *dbinit.Device {
	t.Helper()

	device := &dbinit.Device{
		ID:      id,
		Name:    "fw-" + id,
		Host:    "192.0.2.10",
		APIPort: 443,
		Status:  "unknown",
		Enabled: true,
	}
	if err := db.CreateDevice(device); err != nil {
		t.Fatalf("创建测试设备失败: %v", err)
	}

	return device
}

func TestCreateAndGetDevice(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	device, err := db.GetDevice("dev-1")
	if err != nil {
		t.Fatalf("查询设备失败: %v", err)
	}
	if device == nil {
		t.Fatal("设备不存在")
	}
	if device.Name != "fw-dev-1" || device.APIPort != 443 {
		t.Errorf("设备字段不匹配: %+v", device)
	}

	missing, err := db.GetDevice("no-such-device")
	if err != nil {
		t.Fatalf("查询不存在设备出错: %v", err)
	}
	if missing != nil {
		t.Error("不存在的设备应返回nil")
	}
}

func TestUpdateDeviceStatus(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	if err := db.UpdateDeviceStatus("dev-1", "online"); err != nil {
		t.Fatalf("更新设备状态失败: %v", err)
	}

	device, _ := db.GetDevice("dev-1")
	if device.Status != "online" {
		t.Errorf("expected status online, got %s", device.Status)
	}

	if err := db.UpdateDeviceStatus("no-such-device", "online"); err == nil {
		t.Error("更新不存在设备应报错")
	}
}

func TestListEnabledDevices(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	disabled := &dbinit.Device{
		ID:      "dev-2",
		Name:    "fw-dev-2",
		Host:    "192.0.2.11",
		APIPort: 443,
		Status:  "unknown",
		Enabled: false,
	}
	if err := db.CreateDevice(disabled); err != nil {
		t.Fatalf("创建设备失败: %v", err)
	}

	devices, err := db.ListEnabledDevices()
	if err != nil {
		t.Fatalf("查询启用设备失败: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != "dev-1" {
		t.Errorf("expected only dev-1, got %d devices", len(devices))
	}
}

func TestDeviceLastSeenTrigger(t *testing.T) {
	db := newTestDB(t)
	createTestDevice(t, db, "dev-1")

	sample := &dbinit.Sample{
		Time:       time.Now().UTC().Truncate(time.Second),
		DeviceID:   "dev-1",
		CPUPercent: 10,
	}
	if err := db.InsertSample(sample); err != nil {
		t.Fatalf("写入样本失败: %v", err)
	}

	device, _ := db.GetDevice("dev-1")
	if !device.LastSeenAt.Valid {
		t.Error("写入样本后 last_seen_at 应被触发器更新")
	}
}
