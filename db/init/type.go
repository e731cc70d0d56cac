package init

import (
	"database/sql"
	"time"
)

// Device 防火墙设备（由管理端维护，核心只读+状态更新）
type Device struct {
	ID          string       `json:"id" db:"id"`                     // 设备唯一ID
	Name        string       `json:"name" db:"name"`                 // 设备名称
	Host        string       `json:"host" db:"host"`                 // 管理地址
	APIPort     int          `json:"api_port" db:"api_port"`         // API端口
	Status      string       `json:"status" db:"status"`             // 状态: online/stale/error/unknown
	Enabled     bool         `json:"enabled" db:"enabled"`           // 是否纳入采集
	LastSeenAt  sql.NullTime `json:"last_seen_at" db:"last_seen_at"` // 最后一次成功采集时间
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`     // 创建时间
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`     // 更新时间
	Description string       `json:"description" db:"description"`   // 描述
}

// Sample 一次采集的指标快照，主键 (device_id, time)
type Sample struct {
	Time     time.Time `json:"time" db:"time"`           // 采集时间戳
	DeviceID string    `json:"device_id" db:"device_id"` // 设备ID
	// CPU/内存
	CPUPercent    float64 `json:"cpu_percent" db:"cpu_percent"`       // CPU使用率(0-100)
	MemoryPercent float64 `json:"memory_percent" db:"memory_percent"` // 内存使用率(0-100)
	// 会话
	SessionCount int `json:"session_count" db:"session_count"` // 当前会话数
	SessionMax   int `json:"session_max" db:"session_max"`     // 会话容量
	// 吞吐
	ThroughputInKbps  int64 `json:"throughput_in_kbps" db:"throughput_in_kbps"`   // 入方向吞吐(kbps)
	ThroughputOutKbps int64 `json:"throughput_out_kbps" db:"throughput_out_kbps"` // 出方向吞吐(kbps)
	// 设备信息
	SWVersion     string `json:"sw_version" db:"sw_version"`         // 软件版本
	UptimeSeconds int64  `json:"uptime_seconds" db:"uptime_seconds"` // 设备运行时间(秒)
	// 结构化扩展数据
	TopTalkers sql.NullString `json:"top_talkers" db:"top_talkers"` // Top流量会话(JSON)
	Extra      sql.NullString `json:"extra" db:"extra"`             // 厂商私有扩展字段(JSON)
}

// AlertConfig 告警规则（由管理端维护，核心只读）
type AlertConfig struct {
	ID             string    `json:"id" db:"id"`                           // 规则ID
	DeviceID       string    `json:"device_id" db:"device_id"`             // 设备ID（空=全局规则）
	MetricType     string    `json:"metric_type" db:"metric_type"`         // 指标类型: cpu/memory/sessions/session_pct/throughput_in/throughput_out
	Operator       string    `json:"operator" db:"operator"`               // 比较运算符: > < >= <= == !=
	ThresholdValue float64   `json:"threshold_value" db:"threshold_value"` // 阈值
	Severity       string    `json:"severity" db:"severity"`               // 级别: info/warning/critical
	Enabled        bool      `json:"enabled" db:"enabled"`                 // 是否启用
	ChannelIDs     string    `json:"channel_ids" db:"channel_ids"`         // 通知渠道ID列表（JSON数组）
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// AlertEvent 告警历史记录（触发后不可变，仅确认/恢复字段可更新）
type AlertEvent struct {
	ID             string          `json:"id" db:"id"`
	ConfigID       string          `json:"config_id" db:"config_id"`             // 触发规则ID
	DeviceID       string          `json:"device_id" db:"device_id"`             // 设备ID
	MetricType     string          `json:"metric_type" db:"metric_type"`         // 指标类型
	Severity       string          `json:"severity" db:"severity"`               // 级别
	Message        string          `json:"message" db:"message"`                 // 告警消息
	ActualValue    float64         `json:"actual_value" db:"actual_value"`       // 实际值
	ThresholdValue float64         `json:"threshold_value" db:"threshold_value"` // 阈值
	TriggeredAt    time.Time       `json:"triggered_at" db:"triggered_at"`       // 触发时间
	AcknowledgedAt sql.NullTime    `json:"acknowledged_at" db:"acknowledged_at"` // 确认时间
	AcknowledgedBy sql.NullString  `json:"acknowledged_by" db:"acknowledged_by"` // 确认人
	ResolvedAt     sql.NullTime    `json:"resolved_at" db:"resolved_at"`         // 恢复时间
	ResolveReason  sql.NullString  `json:"resolve_reason" db:"resolve_reason"`   // 恢复原因
}

// AlertCooldown 告警冷却窗口，主键 (device_id, config_id)，upsert语义
type AlertCooldown struct {
	DeviceID        string    `json:"device_id" db:"device_id"`
	ConfigID        string    `json:"config_id" db:"config_id"`
	LastTriggeredAt time.Time `json:"last_triggered_at" db:"last_triggered_at"` // 最近一次触发时间
	ExpiresAt       time.Time `json:"expires_at" db:"expires_at"`               // 冷却到期时间
}

// MaintenanceWindow 维护窗口（窗口内硬静默告警）
type MaintenanceWindow struct {
	ID          string         `json:"id" db:"id"`
	DeviceID    sql.NullString `json:"device_id" db:"device_id"` // 设备ID（NULL=全局窗口）
	StartTime   time.Time      `json:"start_time" db:"start_time"`
	EndTime     time.Time      `json:"end_time" db:"end_time"`
	Enabled     bool           `json:"enabled" db:"enabled"`
	Description string         `json:"description" db:"description"`
}

// CollectionRequest 按需采集请求（外部只读进程入队，调度器独占消费）
type CollectionRequest struct {
	ID           string         `json:"id" db:"id"`
	DeviceID     string         `json:"device_id" db:"device_id"`
	Status       string         `json:"status" db:"status"` // queued/running/completed/failed
	RequestedAt  time.Time      `json:"requested_at" db:"requested_at"`
	StartedAt    sql.NullTime   `json:"started_at" db:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at" db:"completed_at"`
	ErrorMessage sql.NullString `json:"error_message" db:"error_message"`
}

// NotificationChannel 通知渠道（由管理端维护，核心只读）
type NotificationChannel struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`     // 类型: email/webhook/telegram
	Name      string    `json:"name" db:"name"`     // 渠道名称
	Config    string    `json:"config" db:"config"` // 渠道配置(JSON)
	Enabled   bool      `json:"enabled" db:"enabled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DeviceStatus 设备实时状态（存储在Redis）
type DeviceStatus struct {
	DeviceID     string    `json:"device_id"`
	Online       bool      `json:"online"`
	LastSample   time.Time `json:"last_sample"`
	CPUPercent   float64   `json:"cpu_percent"`
	SessionCount int       `json:"session_count"`
}
