package report

import "github.com/bradleyqms/sales-report/internal/model"

// FilterAR 只保留应收发票行
func FilterAR(records []model.ResolvedRecord) []model.ResolvedRecord {
	out := make([]model.ResolvedRecord, 0, len(records))
	for _, r := range records {
		if r.DocType == model.DocTypeAR {
			out = append(out, r)
		}
	}
	return out
}

// kEUR 记录金额折为千欧
func kEUR(r *model.ResolvedRecord) float64 {
	return r.ValueEUR / 1000
}

// sumKEUR 满足条件的记录千欧合计
func sumKEUR(records []model.ResolvedRecord, match func(*model.ResolvedRecord) bool) float64 {
	total := 0.0
	for i := range records {
		if match(&records[i]) {
			total += kEUR(&records[i])
		}
	}
	return total
}

// measures 一个小节或条目的三项度量
type measures struct {
	actual float64
	budget float64
	prior  float64
}

func (m *measures) add(o measures) {
	m.actual += o.actual
	m.budget += o.budget
	m.prior += o.prior
}

func (m *measures) sub(o measures) {
	m.actual -= o.actual
	m.budget -= o.budget
	m.prior -= o.prior
}

// belowDisplayThreshold 三项度量是否都舍入归零
func (m *measures) belowDisplayThreshold() bool {
	return absBelow(m.actual) && absBelow(m.budget) && absBelow(m.prior)
}

func absBelow(v float64) bool {
	if v < 0 {
		v = -v
	}
	return v < 0.5
}
