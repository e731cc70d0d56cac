package sqlite

import (
	"database/sql"
	"strings"

	dbinit "panfm/core/db/init"

	"github.com/google/uuid"
)

// === 通知渠道操作 ===

// CreateNotificationChannel 创建通知渠道（仅供管理端/测试使用）
func (s *SQLiteDB) CreateNotificationChannel(channel *dbinit.NotificationChannel) error {
	if channel.ID == "" {
		channel.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notification_channels (id, type, name, config, enabled)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		channel.ID, channel.Type, channel.Name, channel.Config, channel.Enabled)
	return err
}

// GetNotificationChannel 获取通知渠道
func (s *SQLiteDB) GetNotificationChannel(id string) (*dbinit.NotificationChannel, error) {
	channel := &dbinit.NotificationChannel{}
	query := `
		SELECT id, type, name, config, enabled, created_at
		FROM notification_channels
		WHERE id = ?
	`
	err := s.db.QueryRow(query, id).Scan(
		&channel.ID, &channel.Type, &channel.Name, &channel.Config,
		&channel.Enabled, &channel.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return channel, err
}

// ListEnabledChannelsByIDs 按ID列表获取启用的通知渠道
func (s *SQLiteDB) ListEnabledChannelsByIDs(ids []string) ([]*dbinit.NotificationChannel, error) {
	if len(ids) == 0 {
		return []*dbinit.NotificationChannel{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := `
		SELECT id, type, name, config, enabled, created_at
		FROM notification_channels
		WHERE enabled = 1 AND id IN (` + placeholders + `)
	`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []*dbinit.NotificationChannel{}
	for rows.Next() {
		channel := &dbinit.NotificationChannel{}
		err := rows.Scan(
			&channel.ID, &channel.Type, &channel.Name, &channel.Config,
			&channel.Enabled, &channel.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}

	return channels, rows.Err()
}
