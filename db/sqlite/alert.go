package sqlite

import (
	"database/sql"
	"time"

	dbinit "panfm/core/db/init"

	"github.com/google/uuid"
)

// === 告警规则操作 ===

// CreateAlertConfig 创建告警规则（仅供管理端/测试使用）
func (s *SQLiteDB) CreateAlertConfig(config *dbinit.AlertConfig) error {
	if config.ID == "" {
		config.ID = uuid.New().String()
	}

	query := `
		INSERT INTO alert_configs
		(id, device_id, metric_type, operator, threshold_value, severity, enabled, channel_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		config.ID, config.DeviceID, config.MetricType, config.Operator,
		config.ThresholdValue, config.Severity, config.Enabled, config.ChannelIDs)
	return err
}

// ListActiveAlertConfigs 列出设备生效的告警规则（含全局规则）
func (s *SQLiteDB) ListActiveAlertConfigs(deviceID string) ([]*dbinit.AlertConfig, error) {
	query := `
		SELECT id, device_id, metric_type, operator, threshold_value, severity, enabled,
		       channel_ids, created_at, updated_at
		FROM alert_configs
		WHERE enabled = 1 AND (device_id = ? OR device_id = '')
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := []*dbinit.AlertConfig{}
	for rows.Next() {
		config := &dbinit.AlertConfig{}
		err := rows.Scan(
			&config.ID, &config.DeviceID, &config.MetricType, &config.Operator,
			&config.ThresholdValue, &config.Severity, &config.Enabled,
			&config.ChannelIDs, &config.CreatedAt, &config.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}

	return configs, rows.Err()
}

// === 告警历史操作 ===

// CreateAlertEvent 创建告警历史记录
func (s *SQLiteDB) CreateAlertEvent(event *dbinit.AlertEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.TriggeredAt.IsZero() {
		event.TriggeredAt = time.Now()
	}

	query := `
		INSERT INTO alert_events
		(id, config_id, device_id, metric_type, severity, message, actual_value,
		 threshold_value, triggered_at, acknowledged_at, acknowledged_by, resolved_at, resolve_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		event.ID, event.ConfigID, event.DeviceID, event.MetricType, event.Severity,
		event.Message, event.ActualValue, event.ThresholdValue, event.TriggeredAt,
		event.AcknowledgedAt, event.AcknowledgedBy, event.ResolvedAt, event.ResolveReason)
	return err
}

// ListAlertEvents 获取设备告警历史（触发时间倒序）
func (s *SQLiteDB) ListAlertEvents(deviceID string, limit int) ([]*dbinit.AlertEvent, error) {
	query := `
		SELECT id, config_id, device_id, metric_type, severity, message, actual_value,
		       threshold_value, triggered_at, acknowledged_at, acknowledged_by, resolved_at, resolve_reason
		FROM alert_events
		WHERE device_id = ?
		ORDER BY triggered_at DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*dbinit.AlertEvent{}
	for rows.Next() {
		event := &dbinit.AlertEvent{}
		err := rows.Scan(
			&event.ID, &event.ConfigID, &event.DeviceID, &event.MetricType, &event.Severity,
			&event.Message, &event.ActualValue, &event.ThresholdValue, &event.TriggeredAt,
			&event.AcknowledgedAt, &event.AcknowledgedBy, &event.ResolvedAt, &event.ResolveReason,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// AcknowledgeAlertEvent 确认告警
func (s *SQLiteDB) AcknowledgeAlertEvent(id, by string) error {
	query := `
		UPDATE alert_events SET acknowledged_at = ?, acknowledged_by = ?
		WHERE id = ? AND acknowledged_at IS NULL
	`
	result, err := s.db.Exec(query, time.Now(), by, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ResolveAlertEvent 恢复告警
func (s *SQLiteDB) ResolveAlertEvent(id, reason string) error {
	query := `
		UPDATE alert_events SET resolved_at = ?, resolve_reason = ?
		WHERE id = ? AND resolved_at IS NULL
	`
	result, err := s.db.Exec(query, time.Now(), reason, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// DeleteAlertEventsBefore 删除截止时间之前的告警历史，返回删除行数
func (s *SQLiteDB) DeleteAlertEventsBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM alert_events WHERE triggered_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// === 告警冷却操作 ===

// GetCooldown 获取冷却记录
func (s *SQLiteDB) GetCooldown(deviceID, configID string) (*dbinit.AlertCooldown, error) {
	cooldown := &dbinit.AlertCooldown{}
	query := `
		SELECT device_id, config_id, last_triggered_at, expires_at
		FROM alert_cooldowns
		WHERE device_id = ? AND config_id = ?
	`
	err := s.db.QueryRow(query, deviceID, configID).Scan(
		&cooldown.DeviceID, &cooldown.ConfigID, &cooldown.LastTriggeredAt, &cooldown.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cooldown, err
}

// UpsertCooldown 写入或刷新冷却记录（每个键至多一行）
func (s *SQLiteDB) UpsertCooldown(cooldown *dbinit.AlertCooldown) error {
	query := `
		INSERT INTO alert_cooldowns (device_id, config_id, last_triggered_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id, config_id) DO UPDATE SET
		    last_triggered_at = excluded.last_triggered_at,
		    expires_at = excluded.expires_at
	`
	_, err := s.db.Exec(query,
		cooldown.DeviceID, cooldown.ConfigID, cooldown.LastTriggeredAt, cooldown.ExpiresAt)
	return err
}

// DeleteExpiredCooldowns 删除已到期的冷却记录，返回删除行数
func (s *SQLiteDB) DeleteExpiredCooldowns(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM alert_cooldowns WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// === 维护窗口操作 ===

// CreateMaintenanceWindow 创建维护窗口（仅供管理端/测试使用）
func (s *SQLiteDB) CreateMaintenanceWindow(window *dbinit.MaintenanceWindow) error {
	if window.ID == "" {
		window.ID = uuid.New().String()
	}

	query := `
		INSERT INTO maintenance_windows (id, device_id, start_time, end_time, enabled, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		window.ID, window.DeviceID, window.StartTime, window.EndTime,
		window.Enabled, window.Description)
	return err
}

// ListEnabledMaintenanceWindows 列出启用的维护窗口
func (s *SQLiteDB) ListEnabledMaintenanceWindows() ([]*dbinit.MaintenanceWindow, error) {
	query := `
		SELECT id, device_id, start_time, end_time, enabled, description
		FROM maintenance_windows
		WHERE enabled = 1
		ORDER BY start_time ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := []*dbinit.MaintenanceWindow{}
	for rows.Next() {
		window := &dbinit.MaintenanceWindow{}
		err := rows.Scan(
			&window.ID, &window.DeviceID, &window.StartTime, &window.EndTime,
			&window.Enabled, &window.Description,
		)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}

	return windows, rows.Err()
}
