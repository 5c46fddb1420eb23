package report

import (
	"log"

	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/refdata"
)

// UnitKEUR / UnitKUSD USA Spa 报表的两种计量单位
const (
	UnitKEUR = "kEUR"
	UnitKUSD = "kUSD"
)

// USASpaGenerator 按区域维度的 USA/Spa 报表生成器
// 只统计 Market_Group=USA 且 Channel_Level=Spa 的记录；
// 偏差百分比展示为 pct-100 口径；总计只从明细小节累计，
// 合计小节不再进总计
type USASpaGenerator struct {
	structure  *model.ReportStructure
	budget     *refdata.Slice
	prior      *refdata.Slice
	eurToUSD   float64
	usdActuals bool // 实际值数据源本身已是美元口径

	Unit string // 选定的计量单位，Generate 时确定
}

// NewUSASpaGenerator 构造生成器，eurToUSD 在单位切换为千美元时使用
func NewUSASpaGenerator(structure *model.ReportStructure, budget, prior *refdata.Slice, eurToUSD float64) *USASpaGenerator {
	if eurToUSD <= 0 {
		eurToUSD = 1.07
	}
	return &USASpaGenerator{structure: structure, budget: budget, prior: prior, eurToUSD: eurToUSD, Unit: UnitKEUR}
}

// Generate 单趟遍历产出报表行
// 先收窄到 USA Spa 口径再做单位判定：数据或参照表带非零
// 千美元时整表转千美元，欧元口径的实际值按汇率折算
func (g *USASpaGenerator) Generate(records []model.ResolvedRecord) ([]model.LineItem, error) {
	records = spaScope(records)
	actualScale := g.chooseUnit(records)

	budgetKUSD := g.budget.RegionSums(true)
	budgetKEUR := g.budget.RegionSums(false)
	priorKUSD := g.prior.RegionSums(true)
	priorKEUR := g.prior.RegionSums(false)

	// 区域级查找：千美元非零优先，否则退回千欧
	regionBudget := func(region string) float64 {
		if v := budgetKUSD[region]; v != 0 {
			return v
		}
		return budgetKEUR[region]
	}
	regionPrior := func(region string) float64 {
		if v := priorKUSD[region]; v != 0 {
			return v
		}
		return priorKEUR[region]
	}
	regionActual := func(region string) float64 {
		total := 0.0
		for i := range records {
			r := &records[i]
			if r.Region() != region {
				continue
			}
			switch {
			case g.usdActuals && r.ValueUSD != 0:
				total += r.ValueUSD / 1000
			case g.usdActuals:
				// 没带美元金额的记录按汇率折算，不能丢值
				total += r.ValueEUR / 1000 * g.eurToUSD
			default:
				total += r.ValueEUR / 1000 * actualScale
			}
		}
		return total
	}

	var items []model.LineItem
	sectionTotals := make(map[string]model.LineItem)
	var grand model.LineItem

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
			gt := grand
			gt.Label = node.Title
			gt.Kind = model.RowGrandTotal
			items = append(items, gt)

		case model.SectionComponentTotal:
			var total model.LineItem
			for _, ref := range node.Components {
				if vals, ok := sectionTotals[ref]; ok {
					total.Actual += vals.Actual
					total.Budget += vals.Budget
					total.Prior += vals.Prior
					total.DiffBudget += vals.DiffBudget
					total.DiffPrior += vals.DiffPrior
				}
			}
			total.PctBudget = deltaPct(total.Actual, total.Budget)
			total.PctPrior = deltaPct(total.Actual, total.Prior)
			total.Label = node.Title
			total.Kind = model.RowSectionTotal
			items = append(items, total)

		case model.SectionLeafGroup:
			rows, sectionTotal := g.leafSection(node, regionActual, regionBudget, regionPrior)
			items = append(items, rows...)

			if node.ShowTotal {
				st := sectionTotal
				st.Label = node.Title
				st.Kind = model.RowSectionTotal
				items = append(items, st)
			}
			sectionTotals[node.Title] = sectionTotal
			items = append(items, model.Spacer())

			grand.Actual += sectionTotal.Actual
			grand.Budget += sectionTotal.Budget
			grand.Prior += sectionTotal.Prior
			grand.DiffBudget += sectionTotal.DiffBudget
			grand.DiffPrior += sectionTotal.DiffPrior
			grand.PctBudget = deltaPct(grand.Actual, grand.Budget)
			grand.PctPrior = deltaPct(grand.Actual, grand.Prior)
		}
	}

	return items, nil
}

// spaScope 收窄到 USA Spa 渠道的记录
func spaScope(records []model.ResolvedRecord) []model.ResolvedRecord {
	out := make([]model.ResolvedRecord, 0, len(records))
	for _, r := range records {
		if r.MarketGroup() == "USA" && r.ChannelLevel() == "Spa" {
			out = append(out, r)
		}
	}
	return out
}

// chooseUnit 判定计量单位并返回实际值的折算系数
// 美元判定是数据集级别的：任一记录带美元金额即整表按千美元出
func (g *USASpaGenerator) chooseUnit(records []model.ResolvedRecord) float64 {
	usdInActuals := false
	for i := range records {
		if records[i].ValueUSD != 0 {
			usdInActuals = true
			break
		}
	}

	usdInRefs := false
	for _, v := range g.budget.RegionSums(true) {
		if v != 0 {
			usdInRefs = true
			break
		}
	}
	if !usdInRefs {
		for _, v := range g.prior.RegionSums(true) {
			if v != 0 {
				usdInRefs = true
				break
			}
		}
	}

	switch {
	case usdInActuals:
		g.Unit = UnitKUSD
		g.usdActuals = true
		return 1
	case usdInRefs:
		g.Unit = UnitKUSD
		log.Printf("参照表含千美元数据，报表单位切换为 kUSD，汇率 %v", g.eurToUSD)
		return g.eurToUSD
	default:
		g.Unit = UnitKEUR
		return 1
	}
}

// leafSection 计算一个明细小节，全零行整行跳过
func (g *USASpaGenerator) leafSection(node *model.SectionNode, actual, budget, prior func(string) float64) ([]model.LineItem, model.LineItem) {
	var rows []model.LineItem
	var total model.LineItem

	addRow := func(label, region string) {
		a := actual(region)
		b := budget(region)
		p := prior(region)

		row := model.LineItem{
			Label:      label,
			Actual:     a,
			Budget:     b,
			Prior:      p,
			DiffBudget: a - b,
			PctBudget:  deltaPct(a, b),
			DiffPrior:  a - p,
			PctPrior:   deltaPct(a, p),
			Kind:       model.RowData,
		}
		if !(a == 0 && b == 0 && p == 0) {
			rows = append(rows, row)
		}

		total.Actual += a
		total.Budget += b
		total.Prior += p
		total.DiffBudget += row.DiffBudget
		total.DiffPrior += row.DiffPrior
		total.PctBudget = deltaPct(total.Actual, total.Budget)
		total.PctPrior = deltaPct(total.Actual, total.Prior)
	}

	if len(node.Items) > 0 {
		for _, item := range node.Items {
			if item.FilterValue == "" {
				continue
			}
			addRow(item.Label, item.FilterValue)
		}
	} else if node.Region != "" {
		addRow(node.Title, node.Region)
	}

	return rows, total
}

// deltaPct 偏差百分比（达成率减 100），参照为零时取零
func deltaPct(actual, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	return actual/reference*100 - 100
}
