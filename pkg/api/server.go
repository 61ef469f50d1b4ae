// pkg/api/server.go
package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer 创建新的API服务器
func NewServer(port string, readTimeout, writeTimeout time.Duration) *Server {
	router := gin.New()

	// 设置中间件
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return &Server{
		router: router,
		srv:    srv,
	}
}

// Router 暴露路由引擎，测试时直接驱动
func (s *Server) Router() *gin.Engine {
	return s.router
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(handlers *Handlers) {
	// 健康检查
	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ready", handlers.ReadinessCheck)

	// API v1 路由组
	v1 := s.router.Group("/api/v1")
	{
		// 通知发送接口
		v1.POST("/notifications/events", handlers.ProcessEvent)
		v1.POST("/notifications/send", handlers.SendDirect)
		v1.POST("/notifications/send-by-email", handlers.SendDirectByEmail)
		v1.POST("/notifications/send-from-template", handlers.SendFromTemplate)

		// 通知查询接口
		v1.GET("/notifications", handlers.ListNotifications)
		v1.GET("/notifications/unread-count", handlers.CountUnread)
		v1.GET("/notifications/:id", handlers.GetNotification)
		v1.PATCH("/notifications/:id/read", handlers.MarkRead)

		// 广播记录接口
		v1.GET("/broadcasts", handlers.ListBroadcasts)
		v1.GET("/broadcasts/:id", handlers.GetBroadcast)

		// 模板管理接口
		v1.POST("/templates", handlers.CreateTemplate)
		v1.GET("/templates", handlers.ListTemplates)
		v1.GET("/templates/:id", handlers.GetTemplate)
		v1.PUT("/templates/:id", handlers.UpdateTemplate)
		v1.DELETE("/templates/:id", handlers.DeleteTemplate)
	}
}

// Start 启动服务器并阻塞到收到退出信号
func (s *Server) Start() {
	// 在goroutine中启动服务器
	go func() {
		log.Printf("API服务器启动在 %s\n", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v\n", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	// 设置超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器关闭失败: %v\n", err)
	}

	log.Println("服务器已关闭")
}
