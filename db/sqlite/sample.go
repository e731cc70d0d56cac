package sqlite

import (
	"database/sql"
	"time"

	dbinit "panfm/core/db/init"
)

// === 样本数据操作 ===

// InsertSample 写入样本，主键冲突时以最新内容覆盖（误触发重试幂等）
func (s *SQLiteDB) InsertSample(sample *dbinit.Sample) error {
	query := `
		INSERT INTO samples
		(time, device_id, cpu_percent, memory_percent, session_count, session_max,
		 throughput_in_kbps, throughput_out_kbps, sw_version, uptime_seconds, top_talkers, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, time) DO UPDATE SET
		    cpu_percent = excluded.cpu_percent,
		    memory_percent = excluded.memory_percent,
		    session_count = excluded.session_count,
		    session_max = excluded.session_max,
		    throughput_in_kbps = excluded.throughput_in_kbps,
		    throughput_out_kbps = excluded.throughput_out_kbps,
		    sw_version = excluded.sw_version,
		    uptime_seconds = excluded.uptime_seconds,
		    top_talkers = excluded.top_talkers,
		    extra = excluded.extra
	`
	_, err := s.db.Exec(query,
		sample.Time, sample.DeviceID, sample.CPUPercent, sample.MemoryPercent,
		sample.SessionCount, sample.SessionMax, sample.ThroughputInKbps,
		sample.ThroughputOutKbps, sample.SWVersion, sample.UptimeSeconds,
		sample.TopTalkers, sample.Extra)
	return err
}

// GetLatestSample 获取设备最新样本
func (s *SQLiteDB) GetLatestSample(deviceID string) (*dbinit.Sample, error) {
	sample := &dbinit.Sample{}
	query := `
		SELECT time, device_id, cpu_percent, memory_percent, session_count, session_max,
		       throughput_in_kbps, throughput_out_kbps, sw_version, uptime_seconds, top_talkers, extra
		FROM samples
		WHERE device_id = ?
		ORDER BY time DESC
		LIMIT 1
	`
	err := s.db.QueryRow(query, deviceID).Scan(
		&sample.Time, &sample.DeviceID, &sample.CPUPercent, &sample.MemoryPercent,
		&sample.SessionCount, &sample.SessionMax, &sample.ThroughputInKbps,
		&sample.ThroughputOutKbps, &sample.SWVersion, &sample.UptimeSeconds,
		&sample.TopTalkers, &sample.Extra,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sample, err
}

// ListSamples 获取设备样本（按时间范围，时间升序）
func (s *SQLiteDB) ListSamples(deviceID string, from, to time.Time, limit int) ([]*dbinit.Sample, error) {
	query := `
		SELECT time, device_id, cpu_percent, memory_percent, session_count, session_max,
		       throughput_in_kbps, throughput_out_kbps, sw_version, uptime_seconds, top_talkers, extra
		FROM samples
		WHERE device_id = ? AND time >= ? AND time <= ?
		ORDER BY time ASC
		LIMIT ?
	`
	rows, err := s.db.Query(query, deviceID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []*dbinit.Sample{}
	for rows.Next() {
		sample := &dbinit.Sample{}
		err := rows.Scan(
			&sample.Time, &sample.DeviceID, &sample.CPUPercent, &sample.MemoryPercent,
			&sample.SessionCount, &sample.SessionMax, &sample.ThroughputInKbps,
			&sample.ThroughputOutKbps, &sample.SWVersion, &sample.UptimeSeconds,
			&sample.TopTalkers, &sample.Extra,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}

// DeleteSamplesBefore 删除截止时间之前的样本，返回删除行数
func (s *SQLiteDB) DeleteSamplesBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM samples WHERE time < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
