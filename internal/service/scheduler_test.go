package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"panfm/core/db"
	dbinit "panfm/core/db/init"
	"panfm/core/internal/config"
	"panfm/core/internal/source"
)

// slowSource 模拟慢速设备：记录同时在途的拉取数
type slowSource struct {
	delay       time.Duration
	inFlight    int32
	maxInFlight int32
}

func (s *slowSource) FetchSnapshot(_ context.Context, _ *dbinit.Device) (*source.Snapshot, error) {
	cur := atomic.AddInt32(&s.inFlight, 1)
	for {
		max := atomic.LoadInt32(&s.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&s.maxInFlight, max, cur) {
			break
		}
	}
	time.Sleep(s.delay)
	atomic.AddInt32(&s.inFlight, -1)
	return fullSnapshot(), nil
}

func newTestScheduler(manager *db.Manager, src source.Source) *Scheduler {
	cfg := config.DefaultConfig()
	cfg.Collector.RefreshIntervalSeconds = 3600
	cfg.Collector.StaleAfterCycles = 2
	collector := newTestCollector(manager, src)
	retention := NewRetentionService(manager, &cfg.Retention)
	return NewScheduler(manager, collector, retention, cfg)
}

func TestNextDailyRun(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		hourUTC  int
		expected time.Time
	}{
		{
			"当日未到时刻",
			time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC),
			3,
			time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC),
		},
		{
			"当日已过时刻",
			time.Date(2026, 8, 30, 5, 0, 0, 0, time.UTC),
			3,
			time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC),
		},
		{
			"恰好整点推到次日",
			time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC),
			3,
			time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := nextDailyRun(tt.now, tt.hourUTC); !got.Equal(tt.expected) {
				t.Errorf("nextDailyRun(%v, %d) = %v, expected %v", tt.now, tt.hourUTC, got, tt.expected)
			}
		})
	}
}

func TestCollectTickMisfire(t *testing.T) {
	manager := newTestManager(t)
	scheduler := newTestScheduler(manager, &stubSource{snapshot: fullSnapshot()})

	base := time.Now()

	// 宽限内的tick正常执行
	scheduler.collectTick(base, base)
	stats := scheduler.Snapshot()["collect"]
	if stats.TotalExecutions != 1 || stats.TotalMisfires != 0 {
		t.Errorf("宽限内tick应执行: %+v", stats)
	}

	// 超出宽限的tick计misfire且跳过本轮
	late := base.Add(scheduler.misfireGrace + time.Second)
	scheduler.collectTick(late, base)
	stats = scheduler.Snapshot()["collect"]
	if stats.TotalMisfires != 1 {
		t.Errorf("expected 1 misfire, got %d", stats.TotalMisfires)
	}
	if stats.TotalExecutions != 1 {
		t.Errorf("misfire不应执行采集, got %d executions", stats.TotalExecutions)
	}
}

func TestCollectNoOverlap(t *testing.T) {
	manager := newTestManager(t)
	createTestDevice(t, manager, "dev-1")

	src := &slowSource{delay: 120 * time.Millisecond}
	scheduler := newTestScheduler(manager, src)
	scheduler.refreshInterval = 50 * time.Millisecond
	scheduler.misfireGrace = time.Second

	scheduler.Start()
	time.Sleep(600 * time.Millisecond)
	scheduler.Stop()

	// 单轮耗时超过tick间隔时多余tick被合并，任一时刻至多一轮在途
	if max := atomic.LoadInt32(&src.maxInFlight); max != 1 {
		t.Errorf("同一时刻至多一轮采集在途, got %d", max)
	}
	stats := scheduler.Snapshot()["collect"]
	if stats.TotalExecutions < 2 {
		t.Errorf("合并后仍应继续执行后续轮次, got %d", stats.TotalExecutions)
	}
}

func TestRunJobStats(t *testing.T) {
	manager := newTestManager(t)
	scheduler := newTestScheduler(manager, &stubSource{snapshot: fullSnapshot()})

	scheduler.runJob("collect", func() error { return nil })
	scheduler.runJob("collect", func() error { return errors.New("boom") })

	stats := scheduler.Snapshot()["collect"]
	if stats.TotalExecutions != 2 {
		t.Errorf("expected 2 executions, got %d", stats.TotalExecutions)
	}
	if stats.TotalErrors != 1 {
		t.Errorf("expected 1 error, got %d", stats.TotalErrors)
	}
	if stats.LastError != "boom" {
		t.Errorf("expected last error boom, got %q", stats.LastError)
	}
	if len(stats.History) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(stats.History))
	}
}

func TestRunJobPanicRecovery(t *testing.T) {
	manager := newTestManager(t)
	scheduler := newTestScheduler(manager, &stubSource{snapshot: fullSnapshot()})

	// panic 被隔离且计入错误
	scheduler.runJob("collect", func() error { panic("unexpected") })

	stats := scheduler.Snapshot()["collect"]
	if stats.TotalExecutions != 1 || stats.TotalErrors != 1 {
		t.Errorf("panic应计入执行与错误: %+v", stats)
	}
}

func TestJobHistoryBounded(t *testing.T) {
	manager := newTestManager(t)
	scheduler := newTestScheduler(manager, &stubSource{snapshot: fullSnapshot()})

	for i := 0; i < jobHistoryLimit+5; i++ {
		scheduler.runJob("drain", func() error { return nil })
	}

	stats := scheduler.Snapshot()["drain"]
	if len(stats.History) != jobHistoryLimit {
		t.Errorf("历史应限制在%d条, got %d", jobHistoryLimit, len(stats.History))
	}
}

func TestCollectAllMarksStale(t *testing.T) {
	manager := newTestManager(t)
	createTestDevice(t, manager, "dev-1")

	src := &stubSource{err: errors.New("unreachable")}
	scheduler := newTestScheduler(manager, src)

	// 连续失败2轮后标记失联
	_ = scheduler.collectAll()
	device, _ := manager.DB.SQLite.GetDevice("dev-1")
	if device.Status == "stale" {
		t.Fatal("单轮失败不应标记失联")
	}

	_ = scheduler.collectAll()
	device, _ = manager.DB.SQLite.GetDevice("dev-1")
	if device.Status != "stale" {
		t.Errorf("连续失败后应标记失联, got %s", device.Status)
	}

	// 恢复成功后计数清零
	src.err = nil
	src.snapshot = fullSnapshot()
	_ = scheduler.collectAll()
	device, _ = manager.DB.SQLite.GetDevice("dev-1")
	if device.Status != "online" {
		t.Errorf("恢复后应为online, got %s", device.Status)
	}
	if scheduler.failStreak["dev-1"] != 0 {
		t.Error("恢复后失败计数应清零")
	}
}

func TestDrainQueue(t *testing.T) {
	manager := newTestManager(t)
	createTestDevice(t, manager, "dev-1")
	scheduler := newTestScheduler(manager, &stubSource{snapshot: fullSnapshot()})

	request, err := manager.DB.SQLite.EnqueueCollectionRequest("dev-1")
	if err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	if err := scheduler.drainQueue(); err != nil {
		t.Fatalf("队列消费失败: %v", err)
	}

	got, _ := manager.DB.SQLite.GetCollectionRequest(request.ID)
	if got.Status != "completed" {
		t.Errorf("请求应完成, got %s", got.Status)
	}
	if !got.CompletedAt.Valid {
		t.Error("完成时间未记录")
	}

	sample, _ := manager.DB.SQLite.GetLatestSample("dev-1")
	if sample == nil {
		t.Error("按需采集应写入样本")
	}
}

func TestDrainQueueFailure(t *testing.T) {
	manager := newTestManager(t)
	createTestDevice(t, manager, "dev-1")
	scheduler := newTestScheduler(manager, &stubSource{err: errors.New("device busy")})

	request, err := manager.DB.SQLite.EnqueueCollectionRequest("dev-1")
	if err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	if err := scheduler.drainQueue(); err == nil {
		t.Fatal("采集失败应向上返回")
	}

	got, _ := manager.DB.SQLite.GetCollectionRequest(request.ID)
	if got.Status != "failed" {
		t.Errorf("请求应失败, got %s", got.Status)
	}
	if !got.ErrorMessage.Valid {
		t.Error("失败原因未记录")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	manager := newTestManager(t)
	scheduler := newTestScheduler(manager, &stubSource{snapshot: fullSnapshot()})

	scheduler.Start()

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("调度器停止超时")
	}

	// 启动即执行一轮采集
	stats := scheduler.Snapshot()["collect"]
	if stats.TotalExecutions < 1 {
		t.Error("启动后应立即执行一轮采集")
	}
}
