// Package server 提供触发报表运行与查询结果的 HTTP 接口。
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/bradleyqms/sales-report/internal/config"
	"github.com/bradleyqms/sales-report/internal/runner"
)

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	cfg      *config.AppConfig
	runner   *runner.Runner
	registry *runner.Registry
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.Default(),
		cfg:      cfg,
		runner:   runner.New(cfg),
		registry: runner.NewRegistry(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.POST("/run", s.TriggerRun)
		api.GET("/status", s.GetStatus)
		api.GET("/runs/:id", s.GetRun)
		api.GET("/metrics", s.GetMetrics)
	}
	s.router.GET("/download/:filename", s.Download)
}

// Run 启动服务器
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	return s.router.Run(addr)
}

// Router 暴露底层路由，测试用
func (s *Server) Router() *gin.Engine {
	return s.router
}
