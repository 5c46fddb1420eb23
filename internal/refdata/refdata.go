// Package refdata 加载预算与上年同期的参照表，按期间切片后供聚合引擎只读查询。
package refdata

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// 参照文件的列名，销售员列存在两种历史写法
const (
	colDate         = "Date"
	colCompanyGroup = "Company_Group"
	colMarketGroup  = "Market_Group"
	colRegion       = "Region"
	colChannelLevel = "Channel_Level"
	colOwner        = "Sales_Employee_Cleaned"
	colOwnerLegacy  = "Sales Employee / Account"
	colValueKEUR    = "Value_kEUR"
	colValueKUSD    = "Value_kUSD"
)

// Row 参照表一行，金额已按千欧/千美元计
type Row struct {
	Date         time.Time
	CompanyGroup string
	MarketGroup  string
	Region       string
	ChannelLevel string
	Owner        string
	ValueKEUR    float64
	ValueKUSD    float64
}

// Table 完整参照表
type Table struct {
	Rows    []Row
	HasKUSD bool // 文件是否带 Value_kUSD 列
}

// Slice 按期间切出的子集，查询都在切片上做
type Slice struct {
	Rows    []Row
	HasKUSD bool
}

// Load 读取参照 CSV 文件
// 文件缺失返回空表不报错，取数失败的行跳过并记日志
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("参照文件不存在: %s", path)
			return &Table{}, nil
		}
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	colIndex := make(map[string]int)
	for i, name := range rows[0] {
		colIndex[strings.TrimSpace(name)] = i
	}
	cell := func(row []string, col string) string {
		idx, ok := colIndex[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	_, hasKUSD := colIndex[colValueKUSD]
	table := &Table{HasKUSD: hasKUSD}

	for _, raw := range rows[1:] {
		date, ok := parseDate(cell(raw, colDate))
		if !ok {
			continue
		}
		owner := cell(raw, colOwner)
		if owner == "" {
			owner = cell(raw, colOwnerLegacy)
		}
		table.Rows = append(table.Rows, Row{
			Date:         date,
			CompanyGroup: cell(raw, colCompanyGroup),
			MarketGroup:  cell(raw, colMarketGroup),
			Region:       cell(raw, colRegion),
			ChannelLevel: cell(raw, colChannelLevel),
			Owner:        owner,
			ValueKEUR:    parseNumber(cell(raw, colValueKEUR)),
			ValueKUSD:    parseNumber(cell(raw, colValueKUSD)),
		})
	}
	return table, nil
}

// parseDate 兼容 DD/MM/YYYY 与 YYYY-MM-DD 两种日期写法
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber 清洗千分位逗号与不换行空格后解析
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// MonthSlice 预算切片：只按月份匹配，不看年份
func (t *Table) MonthSlice(month time.Month) *Slice {
	s := &Slice{HasKUSD: t.HasKUSD}
	for _, r := range t.Rows {
		if r.Date.Month() == month {
			s.Rows = append(s.Rows, r)
		}
	}
	return s
}

// YearMonthSlice 上年切片：年份与月份都要匹配
func (t *Table) YearMonthSlice(year int, month time.Month) *Slice {
	s := &Slice{HasKUSD: t.HasKUSD}
	for _, r := range t.Rows {
		if r.Date.Year() == year && r.Date.Month() == month {
			s.Rows = append(s.Rows, r)
		}
	}
	return s
}

// SumGroup 按公司组（可选市场组）求和，useKUSD 为真时取千美元列
func (s *Slice) SumGroup(companyGroup, marketGroup string, useKUSD bool) float64 {
	total := 0.0
	for _, r := range s.Rows {
		if r.CompanyGroup != companyGroup {
			continue
		}
		if marketGroup != "" && r.MarketGroup != marketGroup {
			continue
		}
		total += s.value(r, useKUSD)
	}
	return total
}

// SumDim 在公司组（可选市场组）内按 Region 或 Channel_Level 维度求和
func (s *Slice) SumDim(companyGroup, marketGroup, dim, value string, useKUSD bool) float64 {
	total := 0.0
	for _, r := range s.Rows {
		if companyGroup != "" && r.CompanyGroup != companyGroup {
			continue
		}
		if marketGroup != "" && r.MarketGroup != marketGroup {
			continue
		}
		switch dim {
		case colRegion:
			if r.Region != value {
				continue
			}
		case colChannelLevel:
			if r.ChannelLevel != value {
				continue
			}
		default:
			continue
		}
		total += s.value(r, useKUSD)
	}
	return total
}

// OwnerKEUR 按归属销售员查千欧金额，取首条命中行而非求和
func (s *Slice) OwnerKEUR(owner string) float64 {
	for _, r := range s.Rows {
		if r.Owner == owner {
			return r.ValueKEUR
		}
	}
	return 0
}

// RegionSums 按 Region 汇总，供单位判定与区域查找
// 严格按列取数：请求千美元而文件无该列时返回空表，不回退
func (s *Slice) RegionSums(useKUSD bool) map[string]float64 {
	sums := make(map[string]float64)
	if useKUSD && !s.HasKUSD {
		return sums
	}
	for _, r := range s.Rows {
		if r.Region == "" {
			continue
		}
		if useKUSD {
			sums[r.Region] += r.ValueKUSD
		} else {
			sums[r.Region] += r.ValueKEUR
		}
	}
	return sums
}

// value USA 市场组优先取千美元列，但列不存在时回退千欧
func (s *Slice) value(r Row, useKUSD bool) float64 {
	if useKUSD && s.HasKUSD {
		return r.ValueKUSD
	}
	return r.ValueKEUR
}
