package report

import (
	"math"
	"testing"

	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/refdata"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// resolvedRecord 构造测试用的已解析记录，金额按欧元给
func resolvedRecord(companyGroup, marketGroup, region, channel string, valueEUR float64) model.ResolvedRecord {
	return model.ResolvedRecord{
		RawRecord: model.RawRecord{DocType: model.DocTypeAR, ValueEUR: valueEUR},
		Classification: &model.Classification{
			CompanyGroup: companyGroup,
			MarketGroup:  marketGroup,
			Region:       region,
			ChannelLevel: channel,
		},
	}
}

func refSlice(rows ...refdata.Row) *refdata.Slice {
	return &refdata.Slice{Rows: rows}
}

func findItem(t *testing.T, items []model.LineItem, label string, kind model.RowKind) *model.LineItem {
	t.Helper()
	for i := range items {
		if items[i].Label == label && items[i].Kind == kind {
			return &items[i]
		}
	}
	t.Fatalf("找不到行 %q (kind=%v)", label, kind)
	return nil
}

func receivablesStructure() *model.ReportStructure {
	return &model.ReportStructure{
		Sections: []model.SectionNode{
			{
				Title:        "Core Markets",
				Type:         model.FilterTypeRegion,
				CompanyGroup: "Company 1",
				MarketGroup:  "Core Markets",
				Items: []model.SectionItem{
					{Label: "Germany", FilterValue: "Germany"},
					{Label: "Rest of Core", IsFallback: true},
				},
			},
			{
				Title:        "Company 1 Sales",
				Type:         model.FilterTypeRegion,
				CompanyGroup: "Company 1",
				ShowTotal:    true,
			},
			{Title: "Total Sales", IsGrandTotal: true},
		},
	}
}

func TestReceivablesLeafAndFallback(t *testing.T) {
	records := []model.ResolvedRecord{
		resolvedRecord("Company 1", "Core Markets", "Germany", "Direct", 100000),
		resolvedRecord("Company 1", "Core Markets", "France", "Direct", 40000),
	}
	budget := refSlice(
		refdata.Row{CompanyGroup: "Company 1", MarketGroup: "Core Markets", Region: "Germany", ValueKEUR: 90},
		refdata.Row{CompanyGroup: "Company 1", MarketGroup: "Core Markets", Region: "France", ValueKEUR: 30},
	)
	prior := refSlice(
		refdata.Row{CompanyGroup: "Company 1", MarketGroup: "Core Markets", Region: "Germany", ValueKEUR: 80},
	)

	g := NewReceivablesGenerator(receivablesStructure(), budget, prior)
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}

	germany := findItem(t, items, "Germany", model.RowData)
	if !floatEquals(germany.Actual, 100) {
		t.Errorf("Germany actual = %v", germany.Actual)
	}
	if !floatEquals(germany.Budget, 90) || !floatEquals(germany.Prior, 80) {
		t.Errorf("Germany 参照 = %v/%v", germany.Budget, germany.Prior)
	}

	// 残差 = 小节总额 - 显式条目
	fallback := findItem(t, items, "Rest of Core", model.RowData)
	if !floatEquals(fallback.Actual, 40) {
		t.Errorf("残差 actual = %v", fallback.Actual)
	}
	if !floatEquals(fallback.Budget, 30) {
		t.Errorf("残差 budget = %v", fallback.Budget)
	}

	// Core Markets 在隐式合计名单里，未声明 show_total 也输出
	total := findItem(t, items, "Core Markets", model.RowSectionTotal)
	if !floatEquals(total.Actual, 140) {
		t.Errorf("小节合计 = %v", total.Actual)
	}
}

func TestReceivablesFallbackDroppedWhenNegligible(t *testing.T) {
	structure := &model.ReportStructure{
		Sections: []model.SectionNode{
			{
				Title:        "Core Markets",
				Type:         model.FilterTypeRegion,
				CompanyGroup: "Company 1",
				Items: []model.SectionItem{
					{Label: "Germany", FilterValue: "Germany"},
					{Label: "Rest", IsFallback: true},
				},
			},
		},
	}
	// 全部金额都归到显式条目，残差三项度量都在 0.5 以内
	records := []model.ResolvedRecord{
		resolvedRecord("Company 1", "", "Germany", "", 100000),
	}
	budget := refSlice(refdata.Row{CompanyGroup: "Company 1", Region: "Germany", ValueKEUR: 90})

	g := NewReceivablesGenerator(structure, budget, refSlice())
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.Label == "Rest" {
			t.Fatal("可忽略的残差行应整行丢弃")
		}
	}
}

func TestReceivablesGrandTotalDeduction(t *testing.T) {
	structure := &model.ReportStructure{
		Sections: []model.SectionNode{
			{Title: "Core Markets", Type: model.FilterTypeRegion, CompanyGroup: "Company 1", MarketGroup: "Core Markets"},
			{Title: "Company 1 Sales", Type: model.FilterTypeRegion, CompanyGroup: "Company 1", ShowTotal: true},
			{Title: "Total Sales", IsGrandTotal: true},
		},
	}
	records := []model.ResolvedRecord{
		resolvedRecord("Company 1", "Core Markets", "Germany", "", 100000),
	}

	g := NewReceivablesGenerator(structure, refSlice(), refSlice())
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}

	// Core Markets 不含 "Sales" 不进总计；Company 1 Sales 进总计后又被
	// "Company N Sales" 扣减规则减掉，总计只剩 Core Markets 的口径外贡献
	grand := findItem(t, items, "Total Sales", model.RowGrandTotal)
	if !floatEquals(grand.Actual, 0) {
		t.Errorf("扣减后总计 = %v, 期望 0", grand.Actual)
	}
}

func TestReceivablesComponentTotal(t *testing.T) {
	structure := &model.ReportStructure{
		Sections: []model.SectionNode{
			{Title: "Core Markets", Type: model.FilterTypeRegion, CompanyGroup: "Company 1", MarketGroup: "Core Markets"},
			{Title: "UK", Type: model.FilterTypeRegion, CompanyGroup: "Company 1", MarketGroup: "UK"},
			{Title: "Company 1 Total", IsTotal: true, Components: []string{"Core Markets", "UK", "Missing"}},
			{Title: "Total Sales", IsGrandTotal: true},
		},
	}
	records := []model.ResolvedRecord{
		resolvedRecord("Company 1", "Core Markets", "Germany", "", 100000),
		resolvedRecord("Company 1", "UK", "UK", "", 50000),
	}

	g := NewReceivablesGenerator(structure, refSlice(), refSlice())
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}

	// 未知引用按零贡献
	total := findItem(t, items, "Company 1 Total", model.RowSectionTotal)
	if !floatEquals(total.Actual, 150) {
		t.Errorf("合计小节 = %v", total.Actual)
	}

	// 合计小节进总计，标题不带 Company N Sales 不被扣减
	grand := findItem(t, items, "Total Sales", model.RowGrandTotal)
	if !floatEquals(grand.Actual, 150) {
		t.Errorf("总计 = %v", grand.Actual)
	}
}

func TestReceivablesBudgetRegionMap(t *testing.T) {
	structure := &model.ReportStructure{
		Sections: []model.SectionNode{
			{
				Title:        "Company 3 Sales",
				Type:         model.FilterTypeChannel,
				CompanyGroup: "Company 3",
				Items: []model.SectionItem{
					{Label: "Web", FilterValue: "eCommerce EU (incl. UK)", BudgetRegionMap: "Web Region"},
				},
			},
		},
	}
	records := []model.ResolvedRecord{
		resolvedRecord("Company 3", "", "Germany", "eCommerce EU (incl. UK)", 20000),
	}
	// 参照表按 Region 查替换键，而不是渠道
	budget := refSlice(refdata.Row{CompanyGroup: "Company 3", Region: "Web Region", ValueKEUR: 25})

	g := NewReceivablesGenerator(structure, budget, refSlice())
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}

	web := findItem(t, items, "Web", model.RowData)
	if !floatEquals(web.Actual, 20) || !floatEquals(web.Budget, 25) {
		t.Errorf("Web = %v/%v", web.Actual, web.Budget)
	}
}

func TestReceivablesUSABudgetInKUSD(t *testing.T) {
	structure := &model.ReportStructure{
		Sections: []model.SectionNode{
			{
				Title:        "USA",
				Type:         model.FilterTypeRegion,
				CompanyGroup: "Company 2",
				MarketGroup:  "USA",
				Items: []model.SectionItem{
					{Label: "USA", FilterValue: "USA"},
				},
			},
		},
	}
	records := []model.ResolvedRecord{
		resolvedRecord("Company 2", "USA", "USA", "", 100000),
	}
	budget := &refdata.Slice{
		HasKUSD: true,
		Rows: []refdata.Row{
			{CompanyGroup: "Company 2", MarketGroup: "USA", Region: "USA", ValueKEUR: 80, ValueKUSD: 85},
		},
	}
	prior := &refdata.Slice{
		HasKUSD: true,
		Rows: []refdata.Row{
			{CompanyGroup: "Company 2", MarketGroup: "USA", Region: "USA", ValueKEUR: 70, ValueKUSD: 75},
		},
	}

	g := NewReceivablesGenerator(structure, budget, prior)
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}

	// USA 市场组预算取千美元列，上年仍取千欧
	usa := findItem(t, items, "USA", model.RowData)
	if !floatEquals(usa.Budget, 85) {
		t.Errorf("预算 = %v, 期望 85", usa.Budget)
	}
	if !floatEquals(usa.Prior, 70) {
		t.Errorf("上年 = %v, 期望 70", usa.Prior)
	}
}

func TestReceivablesSpacersAndUnmappedSkipped(t *testing.T) {
	structure := &model.ReportStructure{
		Sections: []model.SectionNode{
			{Title: "Section A", Type: model.FilterTypeRegion, CompanyGroup: "Company 1"},
			{Title: "Unmapped", IsUnmapped: true},
		},
	}
	g := NewReceivablesGenerator(structure, refSlice(), refSlice())
	items, err := g.Generate(nil)
	if err != nil {
		t.Fatal(err)
	}

	// 明细小节后跟空行，未映射占位小节不产出任何行
	if len(items) != 1 || items[0].Kind != model.RowSpacer {
		t.Errorf("输出 = %+v", items)
	}
}
