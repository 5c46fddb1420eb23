package model

// 映射表的预期列名，缺列在加载时一次性检测
const (
	ColSalesEmployee        = "Sales_Employee"
	ColCustomerName         = "Customer_Name"
	ColMarketGroup          = "Market_Group"
	ColRegion               = "Region"
	ColChannelLevel         = "Channel_Level"
	ColCompanyGroup         = "Company_Group"
	ColSalesEmployeeCleaned = "Sales_Employee_Cleaned"
)

// ExpectedMappingColumns 映射文件应包含的列
var ExpectedMappingColumns = []string{
	ColSalesEmployee,
	ColCustomerName,
	ColMarketGroup,
	ColRegion,
	ColChannelLevel,
	ColCompanyGroup,
	ColSalesEmployeeCleaned,
}

// MappingEntry 映射表一行
// SalesEmployee 与 CustomerName 每行只有一个有意义
type MappingEntry struct {
	SalesEmployee string
	CustomerName  string
	MarketGroup   string
	Region        string
	ChannelLevel  string
	CompanyGroup  string
	Owner         string
}

// Classification 转换为分类维度
func (e *MappingEntry) Classification() *Classification {
	return &Classification{
		MarketGroup:  e.MarketGroup,
		Region:       e.Region,
		ChannelLevel: e.ChannelLevel,
		CompanyGroup: e.CompanyGroup,
		Owner:        e.Owner,
	}
}

// MappingTable 映射表，加载一次后只读
// MissingColumns 记录文件中缺失的预期列，对应维度整体退化为空
type MappingTable struct {
	Entries        []MappingEntry
	MissingColumns []string
}

// HasColumn 判断某预期列是否存在
func (t *MappingTable) HasColumn(name string) bool {
	for _, c := range t.MissingColumns {
		if c == name {
			return false
		}
	}
	return true
}
