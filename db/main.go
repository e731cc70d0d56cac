package db

import (
	"fmt"
	"log"

	"panfm/core/db/cache"
	"panfm/core/db/sqlite"
)

// Manager 数据库管理器
type Manager struct {
	DB    *DB
	Cache *Cache

	sqlitePool *sqlite.Pool
	redisPool  *cache.Pool
}

// Config 数据库配置
type Config struct {
	// SQLite配置
	SQLitePath string

	// Redis配置（可选，留空则禁用缓存）
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewManager 创建新的数据库管理器
func NewManager(cfg *Config) (*Manager, error) {
	// 初始化SQLite
	sqlitePool, err := sqlite.NewPool(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init SQLite: %w", err)
	}

	manager := &Manager{
		DB:         NewDB(sqlitePool.Get()),
		sqlitePool: sqlitePool,
	}

	// 初始化Redis（可选，连接失败只打印警告）
	if cfg.RedisAddr != "" {
		redisPool, err := cache.NewPool(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("⚠ Redis connection failed: %v (continuing without cache)", err)
		} else {
			manager.redisPool = redisPool
			manager.Cache = NewCache(redisPool.Get())
		}
	}

	return manager, nil
}

// Close 关闭所有数据库连接
func (m *Manager) Close() error {
	var errs []error

	if m.sqlitePool != nil {
		if err := m.sqlitePool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("SQLite close error: %w", err))
		}
	}

	if m.redisPool != nil {
		if err := m.redisPool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("Redis close error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}

// HasCache 检查是否有缓存可用
func (m *Manager) HasCache() bool {
	return m.Cache != nil && m.Cache.Redis != nil
}
