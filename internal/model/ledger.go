package model

import (
	"sort"
	"time"
)

// EntityType 未映射实体的类型
type EntityType string

const (
	EntityTypeEmployee EntityType = "employee"
	EntityTypeCustomer EntityType = "customer"
)

// LedgerEntry 未映射实体的出现统计
type LedgerEntry struct {
	Type      EntityType `json:"entity_type"`
	Name      string     `json:"entity_name"`
	Count     int        `json:"count"`
	FirstSeen time.Time  `json:"first_seen"`
	LastSeen  time.Time  `json:"last_seen"`
}

type ledgerKey struct {
	typ  EntityType
	name string
}

// UnmappedLedger 未映射实体台账，记录解析缺口供诊断
type UnmappedLedger struct {
	entries map[ledgerKey]*LedgerEntry
}

// NewUnmappedLedger 创建空台账
func NewUnmappedLedger() *UnmappedLedger {
	return &UnmappedLedger{entries: make(map[ledgerKey]*LedgerEntry)}
}

// Record 记录一次未映射出现，并扩展首末出现日期
func (l *UnmappedLedger) Record(typ EntityType, name string, seen time.Time) {
	key := ledgerKey{typ: typ, name: name}
	e, ok := l.entries[key]
	if !ok {
		e = &LedgerEntry{Type: typ, Name: name, FirstSeen: seen, LastSeen: seen}
		l.entries[key] = e
	}
	e.Count++
	if !seen.IsZero() {
		if e.FirstSeen.IsZero() || seen.Before(e.FirstSeen) {
			e.FirstSeen = seen
		}
		if seen.After(e.LastSeen) {
			e.LastSeen = seen
		}
	}
}

// Len 台账条目数
func (l *UnmappedLedger) Len() int {
	return len(l.entries)
}

// Get 查询单个实体的统计
func (l *UnmappedLedger) Get(typ EntityType, name string) (*LedgerEntry, bool) {
	e, ok := l.entries[ledgerKey{typ: typ, name: name}]
	return e, ok
}

// Entries 按出现次数降序（次数相同按名称）返回全部条目
func (l *UnmappedLedger) Entries() []*LedgerEntry {
	result := make([]*LedgerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		return result[i].Name < result[j].Name
	})
	return result
}
