package report

import (
	"testing"

	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/refdata"
)

func ownerRecord(owner string, valueEUR float64) model.ResolvedRecord {
	return model.ResolvedRecord{
		RawRecord:      model.RawRecord{DocType: model.DocTypeAR, ValueEUR: valueEUR},
		Classification: &model.Classification{Owner: owner},
	}
}

func gvlStructure() *model.ReportStructure {
	return &model.ReportStructure{
		Sections: []model.SectionNode{
			{
				Title:     "Team North",
				ShowTotal: true,
				Items: []model.SectionItem{
					{Label: "Mueller", FilterValue: "Mueller"},
					{Label: "Keller", FilterValue: "Keller"},
				},
			},
			{Title: "Pool", SalesEmployee: "Pool Account"},
			{Title: "GVL Total", IsTotal: true, Components: []string{"Team North", "Pool"}},
			{Title: "Total Sales", IsGrandTotal: true},
		},
	}
}

func TestGVLOwnerLookups(t *testing.T) {
	records := []model.ResolvedRecord{
		ownerRecord("Mueller", 50000),
		ownerRecord("Mueller", 10000),
		ownerRecord("Keller", 30000),
		ownerRecord("Pool Account", 5000),
	}
	budget := refSlice(
		refdata.Row{Owner: "Mueller", ValueKEUR: 55},
		refdata.Row{Owner: "Mueller", ValueKEUR: 999}, // 重复行只取首条
		refdata.Row{Owner: "Keller", ValueKEUR: 25},
		refdata.Row{Owner: "Pool Account", ValueKEUR: 4},
	)
	prior := refSlice(
		refdata.Row{Owner: "Mueller", ValueKEUR: 48},
	)

	g := NewGVLGenerator(gvlStructure(), budget, prior)
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}

	mueller := findItem(t, items, "Mueller", model.RowData)
	if !floatEquals(mueller.Actual, 60) {
		t.Errorf("Mueller actual = %v", mueller.Actual)
	}
	if !floatEquals(mueller.Budget, 55) {
		t.Errorf("Mueller budget = %v, 首条命中行而非求和", mueller.Budget)
	}
	if !floatEquals(mueller.Prior, 48) {
		t.Errorf("Mueller prior = %v", mueller.Prior)
	}

	// 小节合计 = 条目之和
	team := findItem(t, items, "Team North", model.RowSectionTotal)
	if !floatEquals(team.Actual, 90) || !floatEquals(team.Budget, 80) {
		t.Errorf("小节合计 = %v/%v", team.Actual, team.Budget)
	}

	// 仅声明 sales_employee 的小节输出单行，上年口径不适用
	pool := findItem(t, items, "Pool", model.RowData)
	if !floatEquals(pool.Actual, 5) || !floatEquals(pool.Budget, 4) {
		t.Errorf("Pool = %v/%v", pool.Actual, pool.Budget)
	}
	if pool.Prior != 0 {
		t.Errorf("Pool prior 应为 0, 实际 %v", pool.Prior)
	}
}

func TestGVLGrandTotalFromComponentTotalsOnly(t *testing.T) {
	records := []model.ResolvedRecord{
		ownerRecord("Mueller", 60000),
		ownerRecord("Pool Account", 5000),
	}

	g := NewGVLGenerator(gvlStructure(), refSlice(), refSlice())
	items, err := g.Generate(records)
	if err != nil {
		t.Fatal(err)
	}

	// 明细小节不直接进总计，只有合计小节累计进去；
	// GVL Total 引用了两个明细小节，总计等于它
	total := findItem(t, items, "GVL Total", model.RowSectionTotal)
	grand := findItem(t, items, "Total Sales", model.RowGrandTotal)
	if !floatEquals(grand.Actual, total.Actual) {
		t.Errorf("总计 = %v, 期望 %v", grand.Actual, total.Actual)
	}
	if !floatEquals(grand.Actual, 65) {
		t.Errorf("总计 = %v, 期望 65", grand.Actual)
	}
}

func TestGVLEmptyFilterValueSkipped(t *testing.T) {
	structure := &model.ReportStructure{
		Sections: []model.SectionNode{
			{Title: "Team", Items: []model.SectionItem{{Label: "Blank"}}},
		},
	}
	g := NewGVLGenerator(structure, refSlice(), refSlice())
	items, err := g.Generate(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.Label == "Blank" {
			t.Fatal("无过滤值的条目应跳过")
		}
	}
}
