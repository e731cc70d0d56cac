package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"panfm/core/db"
	"panfm/core/internal/api"
	"panfm/core/internal/config"
	"panfm/core/internal/service"
	"panfm/core/internal/source"
	"panfm/core/pkg/initializer"
	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "./config.yaml", "Path to config file")
	port       = flag.Int("port", 0, "Override server port")
)

func main() {
	flag.Parse()
	if err := logger.Init(&logger.Config{
		Level:  "info",
		Format: "console",
	}); err != nil {
		log.Fatalf("初始化日志系统失败: %v", err)
	}
	defer logger.Sync()

	// 检查是否首次运行
	isFirstRun := initializer.IsFirstRun(*configPath)

	// 初始化基础目录
	if err := initializer.InitDirectories(); err != nil {
		logger.Fatal("初始化目录失败", zap.Error(err))
	}
	if isFirstRun {
		initializer.PrintWelcome()
	} else {
		printBanner()
	}

	// 首次运行初始化配置文件
	if isFirstRun {
		if err := initializer.InitConfig(*configPath); err != nil {
			logger.Fatal("初始化配置失败", zap.Error(err))
		}
	}
	cfg := config.LoadConfigOrDefault(*configPath)
	if *port > 0 {
		cfg.Server.Port = *port
	}

	// 重新初始化日志系统（使用配置）
	if err := logger.Init(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.OutputPath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		logger.Fatal("重新初始化日志系统失败", zap.Error(err))
	}

	dbManager, err := db.NewManager(&db.Config{
		SQLitePath:    cfg.Database.SQLitePath,
		RedisAddr:     cfg.Database.RedisAddr,
		RedisPassword: cfg.Database.RedisPassword,
		RedisDB:       cfg.Database.RedisDB,
	})
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer dbManager.Close()

	logger.Info("✓ 数据库初始化成功")

	// 采集链路
	collectTimeout := time.Duration(cfg.Collector.CollectTimeoutSeconds) * time.Second
	metricSource := source.NewHTTPSource(collectTimeout, cfg.Collector.VerifyTLS)
	evaluator := service.NewEvaluator(dbManager, &cfg.Alert)
	dispatcher := service.NewDispatcher(time.Duration(cfg.Alert.DispatchTimeoutSeconds) * time.Second)
	collector := service.NewCollector(dbManager, metricSource, evaluator, dispatcher, collectTimeout)
	retention := service.NewRetentionService(dbManager, &cfg.Retention)
	queueService := service.NewQueueService(dbManager)

	// 后台调度器
	scheduler := service.NewScheduler(dbManager, collector, retention, cfg)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP API
	app := api.NewApp(cfg, dbManager, queueService, scheduler)
	apiServer := api.NewServer(app)
	apiServer.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务...")
	if err := apiServer.Stop(); err != nil {
		logger.Error("关闭API服务器失败", zap.Error(err))
	}

	logger.Info("✓ 所有服务已停止")
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════╗
║  PANFM Core — Firewall Metrics & Alerting     ║
╚═══════════════════════════════════════════════╝
`
	fmt.Println(banner)
}
