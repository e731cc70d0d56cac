package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

// Server API服务器
type Server struct {
	httpServer *http.Server
}

// NewServer 创建API服务器
func NewServer(app *App) *Server {
	router := SetupRouter(app)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port),
			Handler:      router,
			ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
		},
	}
}

// Start 启动服务器（非阻塞）
func (s *Server) Start() {
	go func() {
		logger.Info("API服务器启动", zap.String("addr", s.httpServer.Addr))

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务器启动失败", zap.Error(err))
		}
	}()
}

// Stop 优雅关闭服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Error("关闭HTTP服务器失败", zap.Error(err))
		return err
	}

	logger.Info("API服务器已关闭")
	return nil
}
