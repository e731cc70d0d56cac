package service

import (
	"context"
	"sync"
	"time"

	"panfm/core/db"
	"panfm/core/internal/config"
	"panfm/core/internal/metrics"
	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

const jobHistoryLimit = 20

// JobRun 一次任务执行记录
type JobRun struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// JobStats 单任务统计
type JobStats struct {
	Name            string    `json:"name"`
	TotalExecutions int64     `json:"total_executions"`
	TotalErrors     int64     `json:"total_errors"`
	TotalMisfires   int64     `json:"total_misfires"`
	LastError       string    `json:"last_error,omitempty"`
	LastErrorTime   time.Time `json:"last_error_time,omitempty"`
	LastRun         time.Time `json:"last_run,omitempty"`
	History         []JobRun  `json:"history,omitempty"`
}

// Scheduler 后台调度器：周期采集、每日保留清理、按需队列消费
type Scheduler struct {
	manager   *db.Manager
	collector *Collector
	retention *RetentionService

	refreshInterval time.Duration
	misfireGrace    time.Duration
	drainInterval   time.Duration
	cleanupHourUTC  int
	staleAfter      int

	// 设备连续采集失败计数（仅调度器goroutine访问）
	failStreak map[string]int

	stats map[string]*JobStats
	mu    sync.Mutex

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler 创建调度器
func NewScheduler(manager *db.Manager, collector *Collector, retention *RetentionService, cfg *config.Config) *Scheduler {
	refreshInterval := time.Duration(cfg.Collector.RefreshIntervalSeconds) * time.Second
	if refreshInterval <= 0 {
		refreshInterval = 5 * time.Minute
	}
	misfireGrace := time.Duration(cfg.Collector.MisfireGraceSeconds) * time.Second
	if misfireGrace <= 0 {
		misfireGrace = time.Minute
	}
	drainInterval := time.Duration(cfg.Collector.DrainIntervalSeconds) * time.Second
	if drainInterval <= 0 {
		drainInterval = 5 * time.Second
	}
	staleAfter := cfg.Collector.StaleAfterCycles
	if staleAfter <= 0 {
		staleAfter = 3
	}

	return &Scheduler{
		manager:         manager,
		collector:       collector,
		retention:       retention,
		refreshInterval: refreshInterval,
		misfireGrace:    misfireGrace,
		drainInterval:   drainInterval,
		cleanupHourUTC:  cfg.Retention.CleanupHourUTC,
		staleAfter:      staleAfter,
		failStreak:      make(map[string]int),
		stats: map[string]*JobStats{
			"collect": {Name: "collect"},
			"cleanup": {Name: "cleanup"},
			"drain":   {Name: "drain"},
		},
		stopChan: make(chan struct{}),
	}
}

// Start 启动全部后台任务
func (s *Scheduler) Start() {
	s.wg.Add(3)
	go s.collectLoop()
	go s.cleanupLoop()
	go s.drainLoop()

	logger.Info("调度器已启动",
		zap.Duration("refresh_interval", s.refreshInterval),
		zap.Duration("misfire_grace", s.misfireGrace),
		zap.Duration("drain_interval", s.drainInterval),
		zap.Int("cleanup_hour_utc", s.cleanupHourUTC))
}

// Stop 停止调度器并等待任务退出
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	logger.Info("调度器已停止")
}

// Snapshot 导出任务统计快照
func (s *Scheduler) Snapshot() map[string]JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]JobStats, len(s.stats))
	for name, st := range s.stats {
		copied := *st
		copied.History = append([]JobRun(nil), st.History...)
		snapshot[name] = copied
	}
	return snapshot
}

// collectLoop 周期采集循环
//
// 周期采集在本循环内串行执行，天然不会与自身并发；
// tick到达时若距离计划时刻已超过宽限时间则判定misfire跳过本轮。
func (s *Scheduler) collectLoop() {
	defer s.wg.Done()

	// 启动即跑一轮
	s.runJob("collect", s.collectAll)

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	next := time.Now().Add(s.refreshInterval)
	for {
		select {
		case now := <-ticker.C:
			next = s.collectTick(now, next)
		case <-s.stopChan:
			return
		}
	}
}

// collectTick 处理一次采集tick：超出宽限时间判定misfire跳过本轮，否则执行。
// 返回下一次计划时刻。
func (s *Scheduler) collectTick(now, next time.Time) time.Time {
	if now.Sub(next) > s.misfireGrace {
		s.recordMisfire("collect", now.Sub(next))
	} else {
		s.runJob("collect", s.collectAll)
	}
	return time.Now().Add(s.refreshInterval)
}

// cleanupLoop 每日定时保留清理循环
func (s *Scheduler) cleanupLoop() {
	defer s.wg.Done()

	for {
		wait := time.Until(nextDailyRun(time.Now().UTC(), s.cleanupHourUTC))
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			s.runJob("cleanup", s.retention.RunCleanup)
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// drainLoop 按需队列消费循环
func (s *Scheduler) drainLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runJob("drain", s.drainQueue)
		case <-s.stopChan:
			return
		}
	}
}

// collectAll 对全部启用设备执行一轮采集
func (s *Scheduler) collectAll() error {
	devices, err := s.manager.DB.SQLite.ListEnabledDevices()
	if err != nil {
		logger.Error("查询启用设备失败", zap.Error(err))
		return err
	}

	var lastErr error
	for _, device := range devices {
		select {
		case <-s.stopChan:
			return lastErr
		default:
		}

		if _, err := s.collector.RunCycle(context.Background(), device.ID, "scheduled"); err != nil {
			logger.Error("周期采集失败",
				zap.String("device_id", device.ID),
				zap.Error(err))
			lastErr = err
			s.failStreak[device.ID]++
			if s.failStreak[device.ID] == s.staleAfter {
				s.markStale(device.ID)
			}
		} else {
			s.failStreak[device.ID] = 0
		}
	}

	return lastErr
}

// markStale 连续失败达到阈值后标记设备失联
func (s *Scheduler) markStale(deviceID string) {
	logger.Warn("设备连续采集失败，标记为失联",
		zap.String("device_id", deviceID),
		zap.Int("fail_streak", s.staleAfter))
	if err := s.manager.DB.SQLite.UpdateDeviceStatus(deviceID, "stale"); err != nil {
		logger.Error("更新设备状态失败", zap.String("device_id", deviceID), zap.Error(err))
	}
}

// drainQueue 认领并执行全部排队中的按需请求
func (s *Scheduler) drainQueue() error {
	requests, err := s.manager.DB.SQLite.ListQueuedRequests()
	if err != nil {
		return err
	}
	metrics.QueueDepth.Set(float64(len(requests)))

	var lastErr error
	for _, request := range requests {
		select {
		case <-s.stopChan:
			return lastErr
		default:
		}

		claimed, err := s.manager.DB.SQLite.ClaimCollectionRequest(request.ID)
		if err != nil {
			logger.Error("认领采集请求失败", zap.String("request_id", request.ID), zap.Error(err))
			lastErr = err
			continue
		}
		if !claimed {
			// 已被其他消费者认领
			continue
		}

		if _, err := s.collector.RunCycle(context.Background(), request.DeviceID, "on_demand"); err != nil {
			logger.Error("按需采集失败",
				zap.String("request_id", request.ID),
				zap.String("device_id", request.DeviceID),
				zap.Error(err))
			if failErr := s.manager.DB.SQLite.FailCollectionRequest(request.ID, err.Error()); failErr != nil {
				logger.Error("更新请求状态失败", zap.String("request_id", request.ID), zap.Error(failErr))
			}
			lastErr = err
			continue
		}

		if err := s.manager.DB.SQLite.CompleteCollectionRequest(request.ID); err != nil {
			logger.Error("更新请求状态失败", zap.String("request_id", request.ID), zap.Error(err))
			lastErr = err
		}
	}

	return lastErr
}

// runJob 统一任务入口：panic隔离 + 统计记录
func (s *Scheduler) runJob(name string, fn func() error) {
	start := time.Now()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("后台任务panic",
					zap.String("job", name),
					zap.Any("panic", r),
					zap.Stack("stack"))
				err = &jobPanicError{job: name, value: r}
			}
		}()
		err = fn()
	}()

	s.record(name, start, time.Since(start), err)
}

// record 更新任务统计
func (s *Scheduler) record(name string, start time.Time, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[name]
	if !ok {
		st = &JobStats{Name: name}
		s.stats[name] = st
	}

	st.TotalExecutions++
	st.LastRun = start

	run := JobRun{StartedAt: start, Duration: elapsed}
	if err != nil {
		st.TotalErrors++
		st.LastError = err.Error()
		st.LastErrorTime = time.Now()
		run.Error = err.Error()
	}

	st.History = append(st.History, run)
	if len(st.History) > jobHistoryLimit {
		st.History = st.History[len(st.History)-jobHistoryLimit:]
	}
}

// recordMisfire 记录一次错过触发
func (s *Scheduler) recordMisfire(name string, late time.Duration) {
	logger.Warn("任务触发超出宽限时间，跳过本轮",
		zap.String("job", name),
		zap.Duration("late", late))

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[name]; ok {
		st.TotalMisfires++
	}
}

// nextDailyRun 计算下一次每日任务时刻（UTC整点）
func nextDailyRun(now time.Time, hourUTC int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// jobPanicError 后台任务panic包装
type jobPanicError struct {
	job   string
	value interface{}
}

func (e *jobPanicError) Error() string {
	return "job " + e.job + " panicked"
}
