package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 全局配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Collector CollectorConfig `yaml:"collector"`
	Retention RetentionConfig `yaml:"retention"`
	Alert     AlertConfig     `yaml:"alert"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Mode         string `yaml:"mode"` // debug, release
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// CollectorConfig 采集器配置
type CollectorConfig struct {
	RefreshIntervalSeconds int  `yaml:"refresh_interval_seconds"` // 周期采集间隔
	CollectTimeoutSeconds  int  `yaml:"collect_timeout_seconds"`  // 单次采集超时
	MisfireGraceSeconds    int  `yaml:"misfire_grace_seconds"`    // 错过触发的宽限时间
	DrainIntervalSeconds   int  `yaml:"drain_interval_seconds"`   // 按需队列轮询间隔
	StaleAfterCycles       int  `yaml:"stale_after_cycles"`       // 连续失败多少周期后标记失联
	VerifyTLS              bool `yaml:"verify_tls"`               // 是否校验设备API证书
}

// RetentionConfig 数据保留配置
type RetentionConfig struct {
	Days           int `yaml:"days"`             // 样本保留天数
	AlertEventDays int `yaml:"alert_event_days"` // 告警事件保留天数
	CleanupHourUTC int `yaml:"cleanup_hour_utc"` // 每日清理时刻（UTC小时）
}

// AlertConfig 告警配置
type AlertConfig struct {
	CooldownInfoMinutes     int `yaml:"cooldown_info_minutes"`     // info级冷却
	CooldownWarningMinutes  int `yaml:"cooldown_warning_minutes"`  // warning级冷却
	CooldownCriticalMinutes int `yaml:"cooldown_critical_minutes"` // critical级冷却
	DispatchTimeoutSeconds  int `yaml:"dispatch_timeout_seconds"`  // 单通道投递超时
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputPath string `yaml:"output_path"` // 日志文件路径
	MaxSize    int    `yaml:"max_size"`    // 单个日志文件大小(MB)
	MaxBackups int    `yaml:"max_backups"` // 保留的旧日志文件数量
	MaxAge     int    `yaml:"max_age"`     // 保留天数
	Compress   bool   `yaml:"compress"`    // 是否压缩
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault 加载配置或使用默认值
func LoadConfigOrDefault(path string) *Config {
	if path == "" {
		return DefaultConfig()
	}

	config, err := LoadConfig(path)
	if err != nil {
		fmt.Printf("Failed to load config: %v, using defaults\n", err)
		return DefaultConfig()
	}

	return config
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Mode:         "debug",
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Database: DatabaseConfig{
			SQLitePath:    "./data/panfm.db",
			RedisAddr:     "",
			RedisPassword: "",
			RedisDB:       0,
		},
		Collector: CollectorConfig{
			RefreshIntervalSeconds: 300,
			CollectTimeoutSeconds:  30,
			MisfireGraceSeconds:    60,
			DrainIntervalSeconds:   5,
			StaleAfterCycles:       3,
			VerifyTLS:              false,
		},
		Retention: RetentionConfig{
			Days:           30,
			AlertEventDays: 90,
			CleanupHourUTC: 3,
		},
		Alert: AlertConfig{
			CooldownInfoMinutes:     60,
			CooldownWarningMinutes:  30,
			CooldownCriticalMinutes: 10,
			DispatchTimeoutSeconds:  10,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "./logs/panfm.log",
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// SaveConfig 保存配置到文件
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
