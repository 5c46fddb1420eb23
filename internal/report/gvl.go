package report

import (
	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/refdata"
)

// GVLGenerator 按归属销售员维度的 GVL 报表生成器
// 总计采用加和口径：只累计合计小节，明细小节不直接进总计
type GVLGenerator struct {
	structure *model.ReportStructure
	budget    *refdata.Slice
	prior     *refdata.Slice
}

// NewGVLGenerator 构造生成器
func NewGVLGenerator(structure *model.ReportStructure, budget, prior *refdata.Slice) *GVLGenerator {
	return &GVLGenerator{structure: structure, budget: budget, prior: prior}
}

// Generate 单趟遍历产出报表行
func (g *GVLGenerator) Generate(records []model.ResolvedRecord) ([]model.LineItem, error) {
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
			items = append(items, model.LineItem{
				Label:  node.Title,
				Actual: grand.actual,
				Budget: grand.budget,
				Prior:  grand.prior,
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

			if node.ShowTotal {
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
		}
	}

	return items, nil
}

// leafSection 计算一个明细小节，合计取条目之和
// 预算/上年按归属销售员查首条命中行
func (g *GVLGenerator) leafSection(node *model.SectionNode, records []model.ResolvedRecord) ([]model.LineItem, measures) {
	var rows []model.LineItem
	var total measures

	if len(node.Items) > 0 {
		for _, item := range node.Items {
			if item.FilterValue == "" {
				continue
			}
			vals := measures{
				actual: sumKEUR(records, ownerMatch(item.FilterValue)),
				budget: g.budget.OwnerKEUR(item.FilterValue),
				prior:  g.prior.OwnerKEUR(item.FilterValue),
			}
			rows = append(rows, model.LineItem{
				Label:  item.Label,
				Actual: vals.actual,
				Budget: vals.budget,
				Prior:  vals.prior,
				Kind:   model.RowData,
			})
			total.add(vals)
		}
		return rows, total
	}

	// 仅声明 sales_employee 的小节输出单行，上年口径不适用
	if node.SalesEmployee != "" {
		total = measures{
			actual: sumKEUR(records, ownerMatch(node.SalesEmployee)),
			budget: g.budget.OwnerKEUR(node.SalesEmployee),
		}
		rows = append(rows, model.LineItem{
			Label:  node.Title,
			Actual: total.actual,
			Budget: total.budget,
			Kind:   model.RowData,
		})
	}
	return rows, total
}

func ownerMatch(owner string) func(*model.ResolvedRecord) bool {
	return func(r *model.ResolvedRecord) bool {
		return r.Owner() == owner
	}
}
