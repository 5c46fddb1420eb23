package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bradleyqms/sales-report/internal/config"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root := t.TempDir()

	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write("extracts/QRY_AR_MTD_Gmbh.csv", "Mueller, Hans=100000,0\n")
	write("mappings/entity_mappings.csv",
		"Sales_Employee,Customer_Name,Market_Group,Region,Channel_Level,Company_Group,Sales_Employee_Cleaned\n"+
			"\"Mueller, Hans\",,Core Markets,Germany,Direct,Company 1,Mueller\n")
	write("refs/budget.csv", "Date,Company_Group,Region,Value_kEUR\n")
	write("refs/prior.csv", "Date,Company_Group,Region,Value_kEUR\n")
	write("configs/report_structure.json", `{
		"sections": [
			{"title": "Core Markets", "type": "region", "company_group": "Company 1",
			 "items": [{"label": "Germany", "filter_value": "Germany"}]},
			{"title": "Total Sales", "is_grand_total": true}
		]
	}`)
	write("configs/gvl_report_structure.json", `{
		"sections": [
			{"title": "Team", "items": [{"label": "Mueller", "filter_value": "Mueller"}]},
			{"title": "Total Sales", "is_grand_total": true}
		]
	}`)
	write("configs/usa_spa_report_structure.json", `{
		"sections": [
			{"title": "Americas", "items": [{"label": "USA", "filter_value": "USA"}]},
			{"title": "Total", "is_grand_total": true}
		]
	}`)

	cfg := config.DefaultConfig()
	cfg.Server.DevMode = true
	cfg.Data.ExtractsDir = filepath.Join(root, "extracts")
	cfg.Data.MappingFile = filepath.Join(root, "mappings/entity_mappings.csv")
	cfg.Data.BudgetFile = filepath.Join(root, "refs/budget.csv")
	cfg.Data.GVLBudgetFile = filepath.Join(root, "refs/budget.csv")
	cfg.Data.PriorFile = filepath.Join(root, "refs/prior.csv")
	cfg.Data.GVLPriorFile = filepath.Join(root, "refs/prior.csv")
	cfg.Data.OutputDir = filepath.Join(root, "outputs")
	cfg.Data.StructureDir = filepath.Join(root, "configs")
	return cfg
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Router().ServeHTTP(w, req)
	return w
}

// waitIdle 轮询状态接口直到后台运行结束
func waitIdle(t *testing.T, s *Server) StatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := doRequest(s, http.MethodGet, "/api/status")
		var status StatusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatal(err)
		}
		if !status.Running && (status.LastRunID != "" || status.LastError != "") {
			return status
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("等待运行结束超时")
	return StatusResponse{}
}

func TestTriggerRunAndQuery(t *testing.T) {
	s := NewServer(testConfig(t))

	w := doRequest(s, http.MethodPost, "/api/run")
	if w.Code != http.StatusAccepted {
		t.Fatalf("触发状态码 = %d: %s", w.Code, w.Body.String())
	}
	var trigger TriggerRunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &trigger); err != nil {
		t.Fatal(err)
	}
	if trigger.RunID == "" {
		t.Fatal("缺少 runId")
	}

	status := waitIdle(t, s)
	if status.LastError != "" {
		t.Fatalf("运行失败: %s", status.LastError)
	}
	if status.LastRunID != trigger.RunID {
		t.Errorf("LastRunID = %s, 期望 %s", status.LastRunID, trigger.RunID)
	}

	w = doRequest(s, http.MethodGet, "/api/runs/"+trigger.RunID)
	if w.Code != http.StatusOK {
		t.Errorf("结果查询状态码 = %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("指标状态码 = %d", w.Code)
	}
	var metrics MetricsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &metrics); err != nil {
		t.Fatal(err)
	}
	if metrics.RecordCount != 1 {
		t.Errorf("RecordCount = %d", metrics.RecordCount)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := NewServer(testConfig(t))
	if w := doRequest(s, http.MethodGet, "/api/runs/none"); w.Code != http.StatusNotFound {
		t.Errorf("状态码 = %d", w.Code)
	}
}

func TestMetricsWithoutRun(t *testing.T) {
	s := NewServer(testConfig(t))
	if w := doRequest(s, http.MethodGet, "/api/metrics"); w.Code != http.StatusNotFound {
		t.Errorf("状态码 = %d", w.Code)
	}
}

func TestDownloadUnknownFile(t *testing.T) {
	s := NewServer(testConfig(t))

	doRequest(s, http.MethodPost, "/api/run")
	waitIdle(t, s)

	if w := doRequest(s, http.MethodGet, "/download/evil.txt"); w.Code != http.StatusNotFound {
		t.Errorf("未登记文件应 404, 实际 %d", w.Code)
	}
}

func TestDownloadRegisteredFile(t *testing.T) {
	s := NewServer(testConfig(t))

	doRequest(s, http.MethodPost, "/api/run")
	waitIdle(t, s)

	latest, ok := s.registry.Latest()
	if !ok || len(latest.OutputFiles) == 0 {
		t.Fatal("没有可下载的导出文件")
	}
	name := filepath.Base(latest.OutputFiles[0])
	if w := doRequest(s, http.MethodGet, "/download/"+name); w.Code != http.StatusOK {
		t.Errorf("下载状态码 = %d", w.Code)
	}
}
