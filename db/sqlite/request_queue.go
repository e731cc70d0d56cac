package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	dbinit "panfm/core/db/init"

	"github.com/google/uuid"
)

// === 按需采集请求队列操作 ===

// EnqueueCollectionRequest 入队按需采集请求。
// 同一设备已有未完结请求时直接返回该请求（去重），不产生新行。
// 去重依赖非终态部分唯一索引：单条 INSERT ON CONFLICT DO NOTHING 原子判定，
// 并发入队不会产生事务锁升级竞争。
func (s *SQLiteDB) EnqueueCollectionRequest(deviceID string) (*dbinit.CollectionRequest, error) {
	for attempt := 0; attempt < 3; attempt++ {
		request := &dbinit.CollectionRequest{
			ID:          uuid.New().String(),
			DeviceID:    deviceID,
			Status:      "queued",
			RequestedAt: time.Now(),
		}
		insert := `
			INSERT INTO collection_requests (id, device_id, status, requested_at)
			VALUES (?, ?, 'queued', ?)
			ON CONFLICT DO NOTHING
		`
		result, err := s.db.Exec(insert, request.ID, request.DeviceID, request.RequestedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue request: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rows == 1 {
			return request, nil
		}

		existing, err := s.getPendingRequest(deviceID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		// 冲突后旧请求恰好进入终态，重试插入
	}

	return nil, fmt.Errorf("failed to enqueue request for device %s", deviceID)
}

// getPendingRequest 获取设备未完结的请求
func (s *SQLiteDB) getPendingRequest(deviceID string) (*dbinit.CollectionRequest, error) {
	request := &dbinit.CollectionRequest{}
	query := `
		SELECT id, device_id, status, requested_at, started_at, completed_at, error_message
		FROM collection_requests
		WHERE device_id = ? AND status IN ('queued', 'running')
		LIMIT 1
	`
	err := s.db.QueryRow(query, deviceID).Scan(
		&request.ID, &request.DeviceID, &request.Status, &request.RequestedAt,
		&request.StartedAt, &request.CompletedAt, &request.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return request, err
}

// GetCollectionRequest 获取请求
func (s *SQLiteDB) GetCollectionRequest(id string) (*dbinit.CollectionRequest, error) {
	request := &dbinit.CollectionRequest{}
	query := `
		SELECT id, device_id, status, requested_at, started_at, completed_at, error_message
		FROM collection_requests
		WHERE id = ?
	`
	err := s.db.QueryRow(query, id).Scan(
		&request.ID, &request.DeviceID, &request.Status, &request.RequestedAt,
		&request.StartedAt, &request.CompletedAt, &request.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return request, err
}

// ListQueuedRequests 列出排队中的请求（入队时间升序）
func (s *SQLiteDB) ListQueuedRequests() ([]*dbinit.CollectionRequest, error) {
	query := `
		SELECT id, device_id, status, requested_at, started_at, completed_at, error_message
		FROM collection_requests
		WHERE status = 'queued'
		ORDER BY requested_at ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*dbinit.CollectionRequest{}
	for rows.Next() {
		request := &dbinit.CollectionRequest{}
		err := rows.Scan(
			&request.ID, &request.DeviceID, &request.Status, &request.RequestedAt,
			&request.StartedAt, &request.CompletedAt, &request.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// ClaimCollectionRequest 原子认领请求：单条条件更新 queued→running。
// 返回是否认领成功；并发认领者中只有一个能看到受影响行数为1。
func (s *SQLiteDB) ClaimCollectionRequest(id string) (bool, error) {
	query := `
		UPDATE collection_requests
		SET status = 'running', started_at = ?
		WHERE id = ? AND status = 'queued'
	`
	result, err := s.db.Exec(query, time.Now(), id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// CompleteCollectionRequest 标记请求完成
func (s *SQLiteDB) CompleteCollectionRequest(id string) error {
	query := `
		UPDATE collection_requests
		SET status = 'completed', completed_at = ?
		WHERE id = ? AND status = 'running'
	`
	_, err := s.db.Exec(query, time.Now(), id)
	return err
}

// FailCollectionRequest 标记请求失败并记录错误信息
func (s *SQLiteDB) FailCollectionRequest(id, errMsg string) error {
	query := `
		UPDATE collection_requests
		SET status = 'failed', completed_at = ?, error_message = ?
		WHERE id = ? AND status = 'running'
	`
	_, err := s.db.Exec(query, time.Now(), errMsg, id)
	return err
}

// DeleteTerminalRequestsBefore 删除截止时间之前已完结的请求，返回删除行数
func (s *SQLiteDB) DeleteTerminalRequestsBefore(cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM collection_requests
		WHERE status IN ('completed', 'failed') AND completed_at < ?
	`
	result, err := s.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
