package service

import (
	"os"
	"path/filepath"
	"testing"

	"panfm/core/db"
	dbinit "panfm/core/db/init"
	"panfm/core/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(&logger.Config{Level: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newTestManager 创建测试用数据库管理器（无Redis）
func newTestManager(t *testing.T) *db.Manager {
	t.Helper()

	manager, err := db.NewManager(&db.Config{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("创建测试数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })

	return manager
}

// createTestDevice 创建测试设备
func createTestDevice(t *testing.T, manager *db.Manager, id string) *dbinit.Device {
	t.Helper()

	device := &dbinit.Device{
		ID:      id,
		Name:    "fw-" + id,
		Host:    "192.0.2.10",
		APIPort: 443,
		Status:  "unknown",
		Enabled: true,
	}
	if err := manager.DB.SQLite.CreateDevice(device); err != nil {
		t.Fatalf("创建测试设备失败: %v", err)
	}

	return device
}
