// Package runner 串起一次完整的报表运行：
// 读取提取文件 -> 实体解析 -> 三个变体聚合 -> 合并导出。
// 每次运行自成一体，结果对象登记后不再修改。
package runner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bradleyqms/sales-report/internal/config"
	"github.com/bradleyqms/sales-report/internal/export"
	"github.com/bradleyqms/sales-report/internal/ingest"
	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/refdata"
	"github.com/bradleyqms/sales-report/internal/report"
	"github.com/bradleyqms/sales-report/internal/resolver"
)

// 三个报表变体的名字
const (
	VariantReceivables = "receivables"
	VariantGVL         = "gvl"
	VariantUSASpa      = "usa_spa"
)

// 合并报表里各变体之间的分隔标题
var variantSeparators = map[string]string{
	VariantReceivables: "=== RECEIVABLES MANAGEMENT REPORT ===",
	VariantGVL:         "=== GVL REPORT (SALES BY EMPLOYEE) ===",
	VariantUSASpa:      "=== USA SPA REGIONAL REPORT ===",
}

// VariantResult 单个报表变体的产出
// Err 非空表示该变体失败，其余变体不受影响
type VariantResult struct {
	Name  string           `json:"name"`
	Items []model.LineItem `json:"items"`
	Unit  string           `json:"unit"`
	Err   string           `json:"error,omitempty"`
}

// Result 一次运行的不可变结果
type Result struct {
	ID          string               `json:"id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	RecordCount int                  `json:"record_count"`
	Variants    []VariantResult      `json:"variants"`
	Unmapped    []*model.LedgerEntry `json:"unmapped"`
	OutputFiles []string             `json:"output_files"`
}

// Variant 按名字取变体结果
func (r *Result) Variant(name string) *VariantResult {
	for i := range r.Variants {
		if r.Variants[i].Name == name {
			return &r.Variants[i]
		}
	}
	return nil
}

// Runner 报表运行器，一个实例可以反复触发
type Runner struct {
	cfg *config.AppConfig
}

// New 构造运行器
func New(cfg *config.AppConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Run 执行一次完整运行，id 为空时自动生成
// 单变体失败只记录，至少一个变体成功即产出结果；
// 数据源整体不可用才返回错误
func (r *Runner) Run(id string, now time.Time) (*Result, error) {
	if id == "" {
		id = uuid.NewString()
	}
	result := &Result{
		ID:        id,
		StartedAt: now,
	}
	period := report.CurrentPeriod(now)

	records, err := ingest.ReadDir(r.cfg.Data.ExtractsDir)
	if err != nil {
		return nil, err
	}

	table, err := resolver.LoadMappingTable(r.cfg.Data.MappingFile)
	if err != nil {
		return nil, &report.DataSourceError{Path: r.cfg.Data.MappingFile, Err: err}
	}

	resolved, ledger := resolver.New(table).Resolve(records)
	arRecords := report.FilterAR(resolved)
	result.RecordCount = len(arRecords)
	result.Unmapped = ledger.Entries()
	if ledger.Len() > 0 {
		log.Printf("本次运行有 %d 个实体未命中映射", ledger.Len())
	}

	budget, prior, gvlBudget, gvlPrior, err := r.loadReferences(period)
	if err != nil {
		return nil, err
	}

	result.Variants = append(result.Variants,
		r.runReceivables(arRecords, budget, prior),
		r.runGVL(arRecords, gvlBudget, gvlPrior),
		r.runUSASpa(arRecords, budget, prior),
	)

	succeeded := 0
	for _, v := range result.Variants {
		if v.Err == "" {
			succeeded++
		}
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("all report variants failed")
	}

	files, err := r.exportCombined(result, period, now)
	if err != nil {
		return nil, err
	}
	result.OutputFiles = files
	result.FinishedAt = time.Now()
	return result, nil
}

// loadReferences 加载四份参照表并按期间切片
func (r *Runner) loadReferences(period report.Period) (budget, prior, gvlBudget, gvlPrior *refdata.Slice, err error) {
	load := func(path string) (*refdata.Table, error) {
		t, err := refdata.Load(path)
		if err != nil {
			return nil, &report.DataSourceError{Path: path, Err: err}
		}
		return t, nil
	}

	budgetTable, err := load(r.cfg.Data.BudgetFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	priorTable, err := load(r.cfg.Data.PriorFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	gvlBudgetTable, err := load(r.cfg.Data.GVLBudgetFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	gvlPriorTable, err := load(r.cfg.Data.GVLPriorFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// 预算只按月切，上年要求年月都匹配
	budget = budgetTable.MonthSlice(period.Month)
	prior = priorTable.YearMonthSlice(period.PriorYear, period.Month)
	gvlBudget = gvlBudgetTable.MonthSlice(period.Month)
	gvlPrior = gvlPriorTable.YearMonthSlice(period.PriorYear, period.Month)
	return budget, prior, gvlBudget, gvlPrior, nil
}

func (r *Runner) runReceivables(records []model.ResolvedRecord, budget, prior *refdata.Slice) VariantResult {
	res := VariantResult{Name: VariantReceivables, Unit: "kEUR"}

	structure, err := report.LoadStructure(filepath.Join(r.cfg.Data.StructureDir, "report_structure.json"))
	if err != nil {
		res.Err = err.Error()
		return res
	}

	items, err := report.NewReceivablesGenerator(structure, budget, prior).Generate(records)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Items = items
	return res
}

func (r *Runner) runGVL(records []model.ResolvedRecord, budget, prior *refdata.Slice) VariantResult {
	res := VariantResult{Name: VariantGVL, Unit: "kEUR"}

	structure, err := report.LoadStructure(filepath.Join(r.cfg.Data.StructureDir, "gvl_report_structure.json"))
	if err != nil {
		res.Err = err.Error()
		return res
	}

	items, err := report.NewGVLGenerator(structure, budget, prior).Generate(records)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Items = items
	return res
}

func (r *Runner) runUSASpa(records []model.ResolvedRecord, budget, prior *refdata.Slice) VariantResult {
	res := VariantResult{Name: VariantUSASpa}

	structure, err := report.LoadStructure(filepath.Join(r.cfg.Data.StructureDir, "usa_spa_report_structure.json"))
	if err != nil {
		res.Err = err.Error()
		return res
	}

	g := report.NewUSASpaGenerator(structure, budget, prior, r.cfg.Report.EURToUSD)
	items, err := g.Generate(records)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Items = items
	res.Unit = g.Unit
	return res
}

// exportCombined 每个成功变体单独落 CSV，再把它们拼成合并报表写出四种格式
func (r *Runner) exportCombined(result *Result, period report.Period, now time.Time) ([]string, error) {
	if err := os.MkdirAll(r.cfg.Data.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	timestamp := now.Format("20060102_150405")
	var files []string
	var combined []model.LineItem
	for _, v := range result.Variants {
		if v.Err != "" || len(v.Items) == 0 {
			continue
		}
		combined = append(combined, model.Spacer())
		combined = append(combined, model.LineItem{Label: variantSeparators[v.Name], Kind: model.RowData})
		combined = append(combined, v.Items...)

		// 每个变体单独落一份 CSV：Spa 用七列版式，GVL 预算列不缩放
		var vl export.Layout
		switch v.Name {
		case VariantUSASpa:
			vl = &export.SpaLayout{Unit: v.Unit, Period: period}
		case VariantGVL:
			vl = &export.StandardLayout{Unit: v.Unit, Period: period, PlainBudget: true}
		default:
			vl = &export.StandardLayout{Unit: v.Unit, Period: period}
		}
		path := filepath.Join(r.cfg.Data.OutputDir,
			fmt.Sprintf("%s_report_%d_%s.csv", v.Name, period.Year, timestamp))
		if err := export.WriteCSV(path, vl, v.Items); err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	layout := &export.StandardLayout{Unit: "kEUR", Period: period}
	base := filepath.Join(r.cfg.Data.OutputDir,
		fmt.Sprintf("combined_management_report_%d_%s", period.Year, timestamp))

	writers := []struct {
		ext   string
		write func(string, export.Layout, []model.LineItem) error
	}{
		{".csv", export.WriteCSV},
		{".txt", export.WriteTXT},
		{".html", export.WriteHTML},
		{".xlsx", export.WriteXLSX},
	}

	for _, w := range writers {
		path := base + w.ext
		if err := w.write(path, layout, combined); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}
