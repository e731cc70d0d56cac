package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	dbinit "panfm/core/db/init"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB SQLite数据库客户端
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB 创建新的SQLite数据库连接
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := &SQLiteDB{db: db}

	// 初始化schema
	if err := dbinit.InitSQLiteSchema(db); err != nil {
		return nil, err
	}

	// 创建触发器
	if err := dbinit.CreateTriggers(db); err != nil {
		return nil, err
	}

	return client, nil
}

// Close 关闭数据库连接
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Get 获取底层的 *sql.DB
func (s *SQLiteDB) Get() *sql.DB {
	return s.db
}

// === Device 操作 ===

// CreateDevice 创建设备（仅供管理端/测试使用，核心不调用）
func (s *SQLiteDB) CreateDevice(device *dbinit.Device) error {
	query := `
		INSERT INTO devices (id, name, host, api_port, status, enabled, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, device.ID, device.Name, device.Host, device.APIPort,
		device.Status, device.Enabled, device.Description)
	return err
}

// GetDevice 获取设备
func (s *SQLiteDB) GetDevice(id string) (*dbinit.Device, error) {
	device := &dbinit.Device{}
	query := `SELECT * FROM devices WHERE id = ?`
	err := s.db.QueryRow(query, id).Scan(
		&device.ID, &device.Name, &device.Host, &device.APIPort, &device.Status,
		&device.Enabled, &device.LastSeenAt, &device.CreatedAt, &device.UpdatedAt,
		&device.Description,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return device, err
}

// ListEnabledDevices 列出启用采集的设备
func (s *SQLiteDB) ListEnabledDevices() ([]*dbinit.Device, error) {
	query := `SELECT * FROM devices WHERE enabled = 1 ORDER BY created_at ASC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []*dbinit.Device{}
	for rows.Next() {
		device := &dbinit.Device{}
		err := rows.Scan(
			&device.ID, &device.Name, &device.Host, &device.APIPort, &device.Status,
			&device.Enabled, &device.LastSeenAt, &device.CreatedAt, &device.UpdatedAt,
			&device.Description,
		)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}

	return devices, rows.Err()
}

// UpdateDeviceStatus 更新设备状态
func (s *SQLiteDB) UpdateDeviceStatus(id, status string) error {
	query := `UPDATE devices SET status = ? WHERE id = ?`
	result, err := s.db.Exec(query, status, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("device not found")
	}

	return nil
}
