package model

import "fmt"

// SectionKind 节点类型，由配置标志在加载时一次性判定
type SectionKind int

const (
	SectionLeafGroup      SectionKind = iota // 明细分组
	SectionComponentTotal                    // 引用其他小节的合计
	SectionGrandTotal                        // 总计
	SectionUnmapped                          // 未映射占位，跳过
)

// String 节点类型名
func (k SectionKind) String() string {
	switch k {
	case SectionLeafGroup:
		return "leaf"
	case SectionComponentTotal:
		return "component-total"
	case SectionGrandTotal:
		return "grand-total"
	case SectionUnmapped:
		return "unmapped"
	}
	return "unknown"
}

// 明细项的维度过滤类型
const (
	FilterTypeRegion  = "region"
	FilterTypeChannel = "channel"
)

// SectionItem 小节内的一条明细
type SectionItem struct {
	Label           string `json:"label"`
	FilterValue     string `json:"filter_value"`
	IsFallback      bool   `json:"is_fallback"`                 // 残差项：小节总额减去显式明细之和
	BudgetRegionMap string `json:"budget_region_map,omitempty"` // 预算/上年按 Region 查找时的替换键
}

// SectionNode 报表结构中的一个小节
type SectionNode struct {
	Title         string        `json:"title"`
	Type          string        `json:"type,omitempty"` // region / channel
	CompanyGroup  string        `json:"company_group,omitempty"`
	MarketGroup   string        `json:"market_group,omitempty"`
	Items         []SectionItem `json:"items,omitempty"`
	Components    []string      `json:"components,omitempty"` // 合计节点引用的小节标题
	SalesEmployee string        `json:"sales_employee,omitempty"`
	Region        string        `json:"region,omitempty"`
	IsTotal       bool          `json:"is_total,omitempty"`
	IsGrandTotal  bool          `json:"is_grand_total,omitempty"`
	IsUnmapped    bool          `json:"is_unmapped,omitempty"`
	ShowTotal     bool          `json:"show_total,omitempty"`
}

// Kind 判定节点类型，标志互斥，重叠视为配置错误
func (n *SectionNode) Kind() (SectionKind, error) {
	set := 0
	kind := SectionLeafGroup
	if n.IsGrandTotal {
		set++
		kind = SectionGrandTotal
	}
	if n.IsUnmapped {
		set++
		kind = SectionUnmapped
	}
	if n.IsTotal {
		set++
		kind = SectionComponentTotal
	}
	if set > 1 {
		return 0, fmt.Errorf("section %q: overlapping kind flags", n.Title)
	}
	return kind, nil
}

// FallbackCount 小节内残差项数量
func (n *SectionNode) FallbackCount() int {
	count := 0
	for _, it := range n.Items {
		if it.IsFallback {
			count++
		}
	}
	return count
}

// ReportStructure 一个报表变体的声明式结构
type ReportStructure struct {
	Sections []SectionNode `json:"sections"`
}
