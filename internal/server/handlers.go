package server

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/runner"
)

// TriggerRunResponse 触发运行的响应
type TriggerRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// TriggerRun 触发一次报表运行，后台执行
// POST /api/run
// 同一时刻只允许一个任务，冲突返回 409
func (s *Server) TriggerRun(c *gin.Context) {
	if err := s.registry.Begin(); err != nil {
		if errors.Is(err, runner.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	id := uuid.NewString()
	go func() {
		result, err := s.runner.Run(id, time.Now())
		if err != nil {
			log.Printf("报表运行失败 %s: %v", id, err)
			s.registry.Fail(err)
			return
		}
		s.registry.Complete(result)
	}()

	c.JSON(http.StatusAccepted, TriggerRunResponse{RunID: id, Status: "started"})
}

// StatusResponse 运行状态响应
type StatusResponse struct {
	Running       bool   `json:"running"`
	LastRunID     string `json:"lastRunId,omitempty"`
	LastFinished  string `json:"lastFinished,omitempty"`
	LastError     string `json:"lastError,omitempty"`
	UnmappedCount int    `json:"unmappedCount"`
}

// GetStatus 查询运行状态
// GET /api/status
func (s *Server) GetStatus(c *gin.Context) {
	resp := StatusResponse{Running: s.registry.Running()}
	if err := s.registry.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	if latest, ok := s.registry.Latest(); ok {
		resp.LastRunID = latest.ID
		resp.LastFinished = latest.FinishedAt.Format(time.RFC3339)
		resp.UnmappedCount = len(latest.Unmapped)
	}
	c.JSON(http.StatusOK, resp)
}

// GetRun 按 ID 查询运行结果
// GET /api/runs/:id
func (s *Server) GetRun(c *gin.Context) {
	result, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// MetricsResponse 最近一次运行的关键指标
type MetricsResponse struct {
	RunID         string  `json:"runId"`
	TotalSales    float64 `json:"totalSales"`
	TotalBudget   float64 `json:"totalBudget"`
	TotalPrior    float64 `json:"totalPrior"`
	Unit          string  `json:"unit"`
	RecordCount   int     `json:"recordCount"`
	UnmappedCount int     `json:"unmappedCount"`
	GeneratedAt   string  `json:"generatedAt"`
}

// GetMetrics 从最近结果的总计行取指标，不重读导出文件
// GET /api/metrics
func (s *Server) GetMetrics(c *gin.Context) {
	latest, ok := s.registry.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed run"})
		return
	}

	resp := MetricsResponse{
		RunID:         latest.ID,
		Unit:          "kEUR",
		RecordCount:   latest.RecordCount,
		UnmappedCount: len(latest.Unmapped),
		GeneratedAt:   latest.FinishedAt.Format(time.RFC3339),
	}
	if v := latest.Variant(runner.VariantReceivables); v != nil && v.Err == "" {
		for i := range v.Items {
			if v.Items[i].Kind == model.RowGrandTotal {
				resp.TotalSales = v.Items[i].Actual
				resp.TotalBudget = v.Items[i].Budget
				resp.TotalPrior = v.Items[i].Prior
				break
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Download 下载导出文件，只允许取导出目录下的文件名
// GET /download/:filename
func (s *Server) Download(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == ".." || name == "/" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}

	latest, ok := s.registry.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed run"})
		return
	}

	// 只放行最近一次运行登记过的文件
	for _, f := range latest.OutputFiles {
		if filepath.Base(f) == name {
			c.FileAttachment(f, name)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
}
