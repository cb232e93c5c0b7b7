package selector

import (
	"sort"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Rule 排序规则，返回 a 是否应排在 b 之前
type Rule func(a, b model.RawItem) bool

// ByRecency 默认规则：发布日期倒序，同日按来源、标题升序；无日期的条目排在最后
func ByRecency(a, b model.RawItem) bool {
	da, okA := a.Published()
	db, okB := b.Published()
	if okA != okB {
		return okA
	}
	if okA && !da.Equal(db) {
		return da.After(db)
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Title < b.Title
}

// Select 按规则排序后取前 n 条，不修改输入切片
func Select(items []model.RawItem, n int, rule Rule) []model.RawItem {
	if n <= 0 || len(items) == 0 {
		return []model.RawItem{}
	}
	if rule == nil {
		rule = ByRecency
	}

	sorted := make([]model.RawItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rule(sorted[i], sorted[j])
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
