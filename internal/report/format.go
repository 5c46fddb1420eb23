package report

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Period 报表期间，注入 Now 以便测试可控
type Period struct {
	Now       time.Time
	Year      int
	PriorYear int
	Month     time.Month
}

// CurrentPeriod 以给定时刻构造报表期间
func CurrentPeriod(now time.Time) Period {
	return Period{
		Now:       now,
		Year:      now.Year(),
		PriorYear: now.Year() - 1,
		Month:     now.Month(),
	}
}

// ActualHeader 当期实际列头，如 "Aug-26A MTD"
func (p Period) ActualHeader() string {
	return fmt.Sprintf("%s-%02dA MTD", p.Now.Format("Jan"), p.Year%100)
}

// BudgetHeader 预算列头，如 "Aug-26B"
func (p Period) BudgetHeader() string {
	return fmt.Sprintf("%s-%02dB", p.Now.Format("Jan"), p.Year%100)
}

// PriorHeader 上年同期列头，如 "Aug-25A"
func (p Period) PriorHeader() string {
	return fmt.Sprintf("%s-%02dA", p.Now.Format("Jan"), p.PriorYear%100)
}

// MTDRange 月初到当日的区间描述，如 "August 1-30, 2026"
func (p Period) MTDRange() string {
	return fmt.Sprintf("%s 1-%d, %d", p.Now.Format("January"), p.Now.Day(), p.Year)
}

// RoundHalfAway 四舍五入到整数，0.5 远离零
func RoundHalfAway(v float64) int {
	return int(math.Round(v))
}

// FormatValue 金额展示规则：
// 绝对值达到 0.5 时取整展示；精确为零显示占位符 "-"；
// 非零但舍入后归零显示字面 "0"
func FormatValue(v float64) string {
	if math.Abs(v) >= 0.5 {
		return strconv.Itoa(RoundHalfAway(v))
	}
	if v == 0 {
		return "-"
	}
	return "0"
}

// FormatPct 达成百分比，参照为零时给占位符而非除零
func FormatPct(actual, reference float64) string {
	if reference == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", actual/reference*100)
}

// FormatDeltaPct 偏差百分比展示，参照为零时给占位符
func FormatDeltaPct(pct, reference float64) string {
	if reference == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", pct)
}
