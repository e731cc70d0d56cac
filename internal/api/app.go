package api

import (
	"panfm/core/db"
	"panfm/core/internal/config"
	"panfm/core/internal/service"
)

// App 应用实例
type App struct {
	Config    *config.Config
	DB        *db.Manager
	Queue     *service.QueueService
	Scheduler *service.Scheduler
}

// NewApp 创建新的应用实例
func NewApp(cfg *config.Config, dbManager *db.Manager, queue *service.QueueService, scheduler *service.Scheduler) *App {
	return &App{
		Config:    cfg,
		DB:        dbManager,
		Queue:     queue,
		Scheduler: scheduler,
	}
}
