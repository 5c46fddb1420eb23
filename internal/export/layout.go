// Package export 把聚合引擎的报表行写成 CSV / 文本 / HTML / XLSX 四种格式。
package export

import (
	"fmt"
	"strconv"

	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/report"
)

// Layout 一种报表变体的列布局
// CSV 的预算列处理与其他格式历史上不一致，单独给口径
type Layout interface {
	Headers() []string
	Widths() []int
	Row(li *model.LineItem) []string
	CSVRow(li *model.LineItem) []string
}

// StandardLayout 应收/GVL 报表的五列布局
type StandardLayout struct {
	Unit   string
	Period report.Period

	// PlainBudget 为真时 CSV 预算列不做千缩放（GVL 导出口径）
	PlainBudget bool
}

// Headers 列头
func (l *StandardLayout) Headers() []string {
	return []string{l.Unit, l.Period.ActualHeader(), "Budget", "Prior", "% vs Bud"}
}

// Widths 文本格式的列宽
func (l *StandardLayout) Widths() []int {
	return []int{35, 15, 12, 12, 12}
}

// Row 文本/HTML 口径的一行
func (l *StandardLayout) Row(li *model.LineItem) []string {
	return []string{
		li.Label,
		report.FormatValue(li.Actual),
		report.FormatValue(li.Budget),
		report.FormatValue(li.Prior),
		report.FormatPct(li.Actual, li.Budget),
	}
}

// CSVRow CSV 口径：预算列按千缩放，阈值 500；GVL 不缩放
func (l *StandardLayout) CSVRow(li *model.LineItem) []string {
	row := l.Row(li)
	if !l.PlainBudget {
		row[2] = formatScaledBudget(li.Budget)
	}
	return row
}

// SpaLayout USA Spa 报表的七列布局，带预算/上年双向偏差
type SpaLayout struct {
	Unit   string
	Period report.Period
}

// Headers 列头，年份标签从期间推出
func (l *SpaLayout) Headers() []string {
	cur := l.Period.Year % 100
	prior := l.Period.PriorYear % 100
	return []string{
		l.Unit,
		l.Period.ActualHeader(),
		l.Period.BudgetHeader(),
		fmt.Sprintf("%02dA vs %02dB", cur, cur),
		fmt.Sprintf("%% %02dA vs %02dB", cur, cur),
		l.Period.PriorHeader(),
		fmt.Sprintf("%% %02dA vs %02dA", cur, prior),
	}
}

// Widths 文本格式的列宽
func (l *SpaLayout) Widths() []int {
	return []int{35, 16, 12, 12, 14, 12, 14}
}

// Row 所有格式同口径，预算列都按千缩放
func (l *SpaLayout) Row(li *model.LineItem) []string {
	return []string{
		li.Label,
		report.FormatValue(li.Actual),
		formatScaledBudget(li.Budget),
		report.FormatValue(li.DiffBudget),
		report.FormatDeltaPct(li.PctBudget, li.Budget),
		report.FormatValue(li.Prior),
		report.FormatDeltaPct(li.PctPrior, li.Prior),
	}
}

// CSVRow 与 Row 相同
func (l *SpaLayout) CSVRow(li *model.LineItem) []string {
	return l.Row(li)
}

// formatScaledBudget 预算列的千缩放展示：
// 绝对值达到 500 才除以一千取整，精确零给占位符，其余给字面 0
func formatScaledBudget(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	if abs >= 500 {
		return strconv.Itoa(report.RoundHalfAway(v / 1000))
	}
	if v == 0 {
		return "-"
	}
	return "0"
}
