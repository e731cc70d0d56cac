package init

import (
	"database/sql"
	"fmt"
)

const (
	// SQLite 初始化脚本
	SQLiteInitSchema = `
-- 设备表
CREATE TABLE IF NOT EXISTS devices (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    host TEXT NOT NULL,
    api_port INTEGER NOT NULL DEFAULT 443,
    status TEXT NOT NULL DEFAULT 'unknown' CHECK(status IN ('online', 'stale', 'error', 'unknown')),
    enabled INTEGER NOT NULL DEFAULT 1,
    last_seen_at DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    description TEXT
);

CREATE INDEX IF NOT EXISTS idx_devices_enabled ON devices(enabled);
CREATE INDEX IF NOT EXISTS idx_devices_status ON devices(status);

-- 指标样本表（时序数据，主键保证同一时间戳幂等写入）
CREATE TABLE IF NOT EXISTS samples (
    time DATETIME NOT NULL,
    device_id TEXT NOT NULL,
    cpu_percent REAL NOT NULL DEFAULT 0,
    memory_percent REAL NOT NULL DEFAULT 0,
    session_count INTEGER NOT NULL DEFAULT 0,
    session_max INTEGER NOT NULL DEFAULT 0,
    throughput_in_kbps INTEGER NOT NULL DEFAULT 0,
    throughput_out_kbps INTEGER NOT NULL DEFAULT 0,
    sw_version TEXT NOT NULL DEFAULT '',
    uptime_seconds INTEGER NOT NULL DEFAULT 0,
    top_talkers TEXT,
    extra TEXT,
    PRIMARY KEY (device_id, time),
    FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_samples_time ON samples(time);

-- 告警规则表
CREATE TABLE IF NOT EXISTS alert_configs (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL DEFAULT '',
    metric_type TEXT NOT NULL CHECK(metric_type IN ('cpu', 'memory', 'sessions', 'session_pct', 'throughput_in', 'throughput_out')),
    operator TEXT NOT NULL CHECK(operator IN ('>', '<', '>=', '<=', '==', '!=')),
    threshold_value REAL NOT NULL,
    severity TEXT NOT NULL DEFAULT 'warning' CHECK(severity IN ('info', 'warning', 'critical')),
    enabled INTEGER NOT NULL DEFAULT 1,
    channel_ids TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_alert_configs_device ON alert_configs(device_id);
CREATE INDEX IF NOT EXISTS idx_alert_configs_enabled ON alert_configs(enabled);

-- 告警历史表
CREATE TABLE IF NOT EXISTS alert_events (
    id TEXT PRIMARY KEY,
    config_id TEXT NOT NULL,
    device_id TEXT NOT NULL,
    metric_type TEXT NOT NULL,
    severity TEXT NOT NULL,
    message TEXT NOT NULL,
    actual_value REAL NOT NULL,
    threshold_value REAL NOT NULL,
    triggered_at DATETIME NOT NULL,
    acknowledged_at DATETIME,
    acknowledged_by TEXT,
    resolved_at DATETIME,
    resolve_reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_alert_events_device ON alert_events(device_id);
CREATE INDEX IF NOT EXISTS idx_alert_events_triggered ON alert_events(triggered_at DESC);

-- 告警冷却表（每个 设备+规则 至多一行）
CREATE TABLE IF NOT EXISTS alert_cooldowns (
    device_id TEXT NOT NULL,
    config_id TEXT NOT NULL,
    last_triggered_at DATETIME NOT NULL,
    expires_at DATETIME NOT NULL,
    PRIMARY KEY (device_id, config_id)
);

CREATE INDEX IF NOT EXISTS idx_cooldowns_expires ON alert_cooldowns(expires_at);

-- 维护窗口表
CREATE TABLE IF NOT EXISTS maintenance_windows (
    id TEXT PRIMARY KEY,
    device_id TEXT,
    start_time DATETIME NOT NULL,
    end_time DATETIME NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    description TEXT
);

CREATE INDEX IF NOT EXISTS idx_maintenance_enabled ON maintenance_windows(enabled);
CREATE INDEX IF NOT EXISTS idx_maintenance_time ON maintenance_windows(start_time, end_time);

-- 按需采集请求队列表
CREATE TABLE IF NOT EXISTS collection_requests (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'queued' CHECK(status IN ('queued', 'running', 'completed', 'failed')),
    requested_at DATETIME NOT NULL,
    started_at DATETIME,
    completed_at DATETIME,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON collection_requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_device ON collection_requests(device_id);

-- 每设备至多一个未完结请求（入队去重的兜底约束）
CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_pending_device
    ON collection_requests(device_id) WHERE status IN ('queued', 'running');

-- 通知渠道表
CREATE TABLE IF NOT EXISTS notification_channels (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL CHECK(type IN ('email', 'webhook', 'telegram')),
    name TEXT NOT NULL,
    config TEXT NOT NULL DEFAULT '{}',
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_channels_enabled ON notification_channels(enabled);
`
)

// InitSQLiteSchema 初始化 SQLite 数据库schema
func InitSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(SQLiteInitSchema)
	if err != nil {
		return fmt.Errorf("failed to initialize SQLite schema: %w", err)
	}
	return nil
}

// CreateTriggers 创建触发器
func CreateTriggers(db *sql.DB) error {
	triggers := []string{
		// 设备更新时间触发器
		`CREATE TRIGGER IF NOT EXISTS update_devices_timestamp
		 AFTER UPDATE ON devices
		 BEGIN
		     UPDATE devices SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
		 END;`,

		// 告警规则更新时间触发器
		`CREATE TRIGGER IF NOT EXISTS update_alert_configs_timestamp
		 AFTER UPDATE ON alert_configs
		 BEGIN
		     UPDATE alert_configs SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
		 END;`,

		// 样本写入后刷新设备最后采集时间
		`CREATE TRIGGER IF NOT EXISTS update_device_last_seen
		 AFTER INSERT ON samples
		 BEGIN
		     UPDATE devices SET last_seen_at = NEW.time WHERE id = NEW.device_id;
		 END;`,
	}

	for _, trigger := range triggers {
		if _, err := db.Exec(trigger); err != nil {
			return fmt.Errorf("failed to create trigger: %w", err)
		}
	}

	return nil
}
