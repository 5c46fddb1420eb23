package model

import "time"

// EntityGmbH / EntityAG 走员工解析路径，其余公司主体走客户解析路径
const (
	EntityGmbH   = "GmbH"
	EntityAG     = "AG"
	EntityExport = "Export"
	EntityUSA    = "USA"
	EntityUK     = "UK"
)

// DocTypeAR 应收发票类型，报表只统计 AR 行
const DocTypeAR = "AR"

// RawRecord 单笔销售/应收记录
// SalesEmployee 与 CustomerName 每行只有一个有意义，由 Entity 决定取哪个
type RawRecord struct {
	SalesEmployee string    `json:"salesEmployee"`
	CustomerName  string    `json:"customerName"`
	Entity        string    `json:"entity"`   // 公司主体
	DocType       string    `json:"docType"`  // AR / CN / SO_OPEN / SO_TOTAL
	Value         float64   `json:"value"`    // 原币金额
	ValueEUR      float64   `json:"valueEUR"` // 折算后的欧元金额
	ValueUSD      float64   `json:"valueUSD"` // 美元金额（仅部分数据源提供）
	Currency      string    `json:"currency"`
	PostingDate   time.Time `json:"postingDate"`
}

// UsesEmployeePath 判断记录是否走员工解析路径
func (r *RawRecord) UsesEmployeePath() bool {
	return r.Entity == EntityGmbH || r.Entity == EntityAG
}

// Classification 映射表赋予的组织维度
type Classification struct {
	MarketGroup  string `json:"marketGroup"`
	Region       string `json:"region"`
	ChannelLevel string `json:"channelLevel"`
	CompanyGroup string `json:"companyGroup"`
	Owner        string `json:"owner"` // 清洗后的归属销售员名
}

// ResolvedRecord 解析后的记录，Classification 为 nil 表示未命中映射
type ResolvedRecord struct {
	RawRecord
	Classification *Classification `json:"classification"`
}

// Resolved 是否已解析出组织维度
func (r *ResolvedRecord) Resolved() bool {
	return r.Classification != nil
}

// Region 安全取 Region 维度，未解析返回空串
func (r *ResolvedRecord) Region() string {
	if r.Classification == nil {
		return ""
	}
	return r.Classification.Region
}

// MarketGroup 安全取 Market_Group 维度
func (r *ResolvedRecord) MarketGroup() string {
	if r.Classification == nil {
		return ""
	}
	return r.Classification.MarketGroup
}

// ChannelLevel 安全取 Channel_Level 维度
func (r *ResolvedRecord) ChannelLevel() string {
	if r.Classification == nil {
		return ""
	}
	return r.Classification.ChannelLevel
}

// CompanyGroup 安全取 Company_Group 维度
func (r *ResolvedRecord) CompanyGroup() string {
	if r.Classification == nil {
		return ""
	}
	return r.Classification.CompanyGroup
}

// Owner 安全取清洗后销售员名
func (r *ResolvedRecord) Owner() string {
	if r.Classification == nil {
		return ""
	}
	return r.Classification.Owner
}
