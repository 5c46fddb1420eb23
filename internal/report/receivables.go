// Package report 聚合引擎：对声明式小节结构做单趟遍历，
// 从已解析记录与预算/上年参照表算出有序的报表行。
package report

import (
	"strings"

	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/refdata"
)

// 这些小节即使未声明 show_total 也输出合计行
var implicitTotalTitles = map[string]bool{
	"Core Markets": true,
	"UK":           true,
	"USA":          true,
	"Export":       true,
}

// ReceivablesGenerator 应收报表生成器
// 总计采用扣减口径：先广泛累计，出总计行时再减去 "Company N Sales"
// 这类汇总小节，避免重复计入
type ReceivablesGenerator struct {
	structure *model.ReportStructure
	budget    *refdata.Slice
	prior     *refdata.Slice
}

// NewReceivablesGenerator 构造生成器，参照切片已按期间过滤好
func NewReceivablesGenerator(structure *model.ReportStructure, budget, prior *refdata.Slice) *ReceivablesGenerator {
	return &ReceivablesGenerator{structure: structure, budget: budget, prior: prior}
}

// Generate 单趟遍历小节列表产出报表行
// 输入记录应当已过 AR 过滤
func (g *ReceivablesGenerator) Generate(records []model.ResolvedRecord) ([]model.LineItem, error) {
	var items []model.LineItem
	sectionTotals := make(map[string]measures)
	var grand measures

	for i := range g.structure.Sections {
		node := &g.structure.Sections[i]
		kind, err := node.Kind()
		if err != nil {
			return nil, err
		}

		switch kind {
		case model.SectionUnmapped:
			continue

		case model.SectionGrandTotal:
			// 扣减已记录的公司级汇总小节
			adjusted := grand
			for title, vals := range sectionTotals {
				if strings.HasPrefix(title, "Company ") && strings.HasSuffix(title, " Sales") {
					adjusted.sub(vals)
				}
			}
			items = append(items, model.LineItem{
				Label:  node.Title,
				Actual: adjusted.actual,
				Budget: adjusted.budget,
				Prior:  adjusted.prior,
				Kind:   model.RowGrandTotal,
			})

		case model.SectionComponentTotal:
			var total measures
			for _, ref := range node.Components {
				if vals, ok := sectionTotals[ref]; ok {
					total.add(vals)
				}
			}
			items = append(items, model.LineItem{
				Label:  node.Title,
				Actual: total.actual,
				Budget: total.budget,
				Prior:  total.prior,
				Kind:   model.RowSectionTotal,
			})
			grand.add(total)

		case model.SectionLeafGroup:
			rows, sectionTotal := g.leafSection(node, records)
			items = append(items, rows...)

			if node.ShowTotal || implicitTotalTitles[node.Title] {
				items = append(items, model.LineItem{
					Label:  node.Title,
					Actual: sectionTotal.actual,
					Budget: sectionTotal.budget,
					Prior:  sectionTotal.prior,
					Kind:   model.RowSectionTotal,
				})
			}
			sectionTotals[node.Title] = sectionTotal
			items = append(items, model.Spacer())

			if strings.Contains(node.Title, "Sales") {
				grand.add(sectionTotal)
			}
		}
	}

	return items, nil
}

// leafSection 计算一个明细小节的行与小节合计
// 小节合计取公司组+市场组整体口径，而非条目之和
func (g *ReceivablesGenerator) leafSection(node *model.SectionNode, records []model.ResolvedRecord) ([]model.LineItem, measures) {
	useKUSD := node.MarketGroup == "USA"

	sectionTotal := measures{
		actual: sumKEUR(records, func(r *model.ResolvedRecord) bool {
			return g.matchSection(node, r)
		}),
		budget: g.budget.SumGroup(node.CompanyGroup, node.MarketGroup, useKUSD),
		prior:  g.prior.SumGroup(node.CompanyGroup, node.MarketGroup, false),
	}

	var rows []model.LineItem
	var allocated measures
	fallbackAt := -1

	for _, item := range node.Items {
		if item.IsFallback {
			fallbackAt = len(rows)
			rows = append(rows, model.LineItem{Label: item.Label})
			continue
		}

		vals := g.itemMeasures(node, &item, records, useKUSD)
		rows = append(rows, model.LineItem{
			Label:  item.Label,
			Actual: vals.actual,
			Budget: vals.budget,
			Prior:  vals.prior,
			Kind:   model.RowData,
		})
		allocated.add(vals)
	}

	// 残差项：小节总额减去显式条目，三项度量都舍入归零时整行丢弃
	if fallbackAt >= 0 {
		residual := sectionTotal
		residual.sub(allocated)
		if residual.belowDisplayThreshold() {
			rows = append(rows[:fallbackAt], rows[fallbackAt+1:]...)
		} else {
			rows[fallbackAt].Actual = residual.actual
			rows[fallbackAt].Budget = residual.budget
			rows[fallbackAt].Prior = residual.prior
		}
	}

	return rows, sectionTotal
}

// matchSection 记录是否属于该小节的公司组/市场组口径
func (g *ReceivablesGenerator) matchSection(node *model.SectionNode, r *model.ResolvedRecord) bool {
	if r.CompanyGroup() != node.CompanyGroup {
		return false
	}
	if node.MarketGroup != "" && r.MarketGroup() != node.MarketGroup {
		return false
	}
	return true
}

// itemMeasures 单个条目的三项度量
func (g *ReceivablesGenerator) itemMeasures(node *model.SectionNode, item *model.SectionItem, records []model.ResolvedRecord, useKUSD bool) measures {
	actual := sumKEUR(records, func(r *model.ResolvedRecord) bool {
		if !g.matchSection(node, r) {
			return false
		}
		switch node.Type {
		case model.FilterTypeRegion:
			return r.Region() == item.FilterValue
		case model.FilterTypeChannel:
			return r.ChannelLevel() == item.FilterValue
		}
		return false
	})

	// 渠道类条目可以声明 budget_region_map，参照表按 Region 查替换键
	lookupValue := item.FilterValue
	lookupDim := "Channel_Level"
	if node.Type == model.FilterTypeRegion {
		lookupDim = "Region"
	}
	if item.BudgetRegionMap != "" {
		lookupDim = "Region"
		lookupValue = item.BudgetRegionMap
	}

	return measures{
		actual: actual,
		budget: g.budget.SumDim(node.CompanyGroup, node.MarketGroup, lookupDim, lookupValue, useKUSD),
		prior:  g.prior.SumDim(node.CompanyGroup, node.MarketGroup, lookupDim, lookupValue, false),
	}
}
