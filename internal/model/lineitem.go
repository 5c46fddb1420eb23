package model

// RowKind 报表输出行的类型
type RowKind int

const (
	RowData         RowKind = iota // 数据行
	RowSectionTotal                // 小节合计
	RowGrandTotal                  // 总计
	RowSpacer                      // 空行
)

// LineItem 聚合引擎输出的一行
// DiffBudget/PctBudget/DiffPrior/PctPrior 仅部分报表变体填充
type LineItem struct {
	Label      string  `json:"label"`
	Actual     float64 `json:"actual"`
	Budget     float64 `json:"budget"`
	Prior      float64 `json:"prior"`
	DiffBudget float64 `json:"diffBudget"`
	PctBudget  float64 `json:"pctBudget"` // 预算达成百分比，口径随报表变体而异
	DiffPrior  float64 `json:"diffPrior"`
	PctPrior   float64 `json:"pctPrior"`
	Kind       RowKind `json:"kind"`
}

// IsTotal 是否为合计类行（小节合计或总计）
func (li *LineItem) IsTotal() bool {
	return li.Kind == RowSectionTotal || li.Kind == RowGrandTotal
}

// Spacer 构造空行
func Spacer() LineItem {
	return LineItem{Kind: RowSpacer}
}
