package source

import (
	"context"

	dbinit "panfm/core/db/init"
)

// Snapshot 设备原始快照（采集转换前的数据）
type Snapshot struct {
	CPUPercent        *float64               `json:"cpu_percent"`
	MemoryPercent     *float64               `json:"memory_percent"`
	SessionCount      *int64                 `json:"session_count"`
	SessionMax        *int64                 `json:"session_max"`
	ThroughputInKbps  *float64               `json:"throughput_in_kbps"`
	ThroughputOutKbps *float64               `json:"throughput_out_kbps"`
	SWVersion         string                 `json:"sw_version"`
	UptimeSeconds     int64                  `json:"uptime_seconds"`
	TopTalkers        []Talker               `json:"top_talkers,omitempty"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

// Talker 流量大户条目
type Talker struct {
	Address  string  `json:"address"`
	Kbps     float64 `json:"kbps"`
	Sessions int64   `json:"sessions"`
	AppName  string  `json:"app_name,omitempty"`
}

// Source 指标源适配器
type Source interface {
	// FetchSnapshot 从设备拉取一次原始快照
	FetchSnapshot(ctx context.Context, device *dbinit.Device) (*Snapshot, error)
}
