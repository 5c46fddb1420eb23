// Package resolver 将原始销售记录与映射表关联，产出带组织维度的记录
// 以及未映射实体台账。
package resolver

import (
	"strings"

	"github.com/bradleyqms/sales-report/internal/model"
)

// 历史遗留的渠道标签改名
const (
	legacyECommerceLabel  = "eCommerce (excl. USA)"
	currentECommerceLabel = "eCommerce EU (incl. UK)"
)

// Resolver 持有一次运行内只读的映射索引
type Resolver struct {
	table         *model.MappingTable
	employeeIndex map[string]*model.MappingEntry
	customerIndex map[string]*model.MappingEntry
}

// New 根据映射表构建解析器，两个索引各自按键去重保留首条
func New(table *model.MappingTable) *Resolver {
	r := &Resolver{
		table:         table,
		employeeIndex: make(map[string]*model.MappingEntry),
		customerIndex: make(map[string]*model.MappingEntry),
	}

	for i := range table.Entries {
		entry := &table.Entries[i]
		if key := strings.TrimSpace(entry.SalesEmployee); key != "" {
			if _, exists := r.employeeIndex[key]; !exists {
				r.employeeIndex[key] = entry
			}
		}
		if key := strings.TrimSpace(entry.CustomerName); key != "" {
			if _, exists := r.customerIndex[key]; !exists {
				r.customerIndex[key] = entry
			}
		}
	}
	return r
}

// Resolve 解析一批记录
// 台账在行过滤之前记录，保留"为什么没映射上"的诊断价值
func (r *Resolver) Resolve(records []model.RawRecord) ([]model.ResolvedRecord, *model.UnmappedLedger) {
	ledger := model.NewUnmappedLedger()
	resolved := make([]model.ResolvedRecord, 0, len(records))

	for _, rec := range records {
		rr := model.ResolvedRecord{RawRecord: rec}
		rr.Classification = r.lookup(&rec, ledger)
		resolved = append(resolved, rr)
	}

	filtered := applyFilters(resolved)
	for i := range filtered {
		normalizeLabels(filtered[i].Classification)
	}
	return filtered, ledger
}

// lookup 按实体选择主路径查找，未命中时做一次精确的跨路径回退
func (r *Resolver) lookup(rec *model.RawRecord, ledger *model.UnmappedLedger) *model.Classification {
	employee := strings.TrimSpace(rec.SalesEmployee)
	customer := strings.TrimSpace(rec.CustomerName)

	if rec.UsesEmployeePath() {
		if entry, ok := r.employeeIndex[employee]; ok {
			return r.degrade(entry.Classification())
		}
		// 跨路径回退，仅做精确匹配：先拿客户名查员工索引
		if entry, ok := r.employeeIndex[customer]; ok && customer != "" {
			return r.degrade(entry.Classification())
		}
		if entry, ok := r.customerIndex[employee]; ok && employee != "" {
			return r.degrade(entry.Classification())
		}
		ledger.Record(model.EntityTypeEmployee, employee, rec.PostingDate)
		return nil
	}

	if entry, ok := r.customerIndex[customer]; ok {
		return r.degrade(entry.Classification())
	}
	if entry, ok := r.employeeIndex[customer]; ok && customer != "" {
		return r.degrade(entry.Classification())
	}
	if entry, ok := r.customerIndex[employee]; ok && employee != "" {
		return r.degrade(entry.Classification())
	}
	ledger.Record(model.EntityTypeCustomer, customer, rec.PostingDate)
	return nil
}

// degrade 映射文件缺列时对应维度整体置空
func (r *Resolver) degrade(c *model.Classification) *model.Classification {
	if len(r.table.MissingColumns) == 0 {
		return c
	}
	if !r.table.HasColumn(model.ColMarketGroup) {
		c.MarketGroup = ""
	}
	if !r.table.HasColumn(model.ColRegion) {
		c.Region = ""
	}
	if !r.table.HasColumn(model.ColChannelLevel) {
		c.ChannelLevel = ""
	}
	if !r.table.HasColumn(model.ColCompanyGroup) {
		c.CompanyGroup = ""
	}
	if !r.table.HasColumn(model.ColSalesEmployeeCleaned) {
		c.Owner = ""
	}
	return c
}

// applyFilters 按固定顺序应用行过滤，对已解析与未解析记录一视同仁
func applyFilters(records []model.ResolvedRecord) []model.ResolvedRecord {
	out := records[:0]
	for _, rec := range records {
		// Export 主体只保留 AR 发票行
		if rec.Entity == model.EntityExport && rec.DocType != model.DocTypeAR {
			continue
		}
		// 瑞士区域只允许 AG 主体
		if rec.Region() == "Switzerland" && rec.Entity != model.EntityAG {
			continue
		}
		// 剔除集团内部往来客户
		if strings.Contains(strings.ToLower(rec.CustomerName), "interco") {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// normalizeLabels 渠道/区域/归属人中的旧标签统一改名
func normalizeLabels(c *model.Classification) {
	if c == nil {
		return
	}
	if c.ChannelLevel == legacyECommerceLabel {
		c.ChannelLevel = currentECommerceLabel
	}
	if c.Region == legacyECommerceLabel {
		c.Region = currentECommerceLabel
	}
	if c.Owner == legacyECommerceLabel {
		c.Owner = currentECommerceLabel
	}
}
