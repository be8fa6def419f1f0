package geodb

import "sort"

// 文档注释：一对多索引（邮编 → 记录列表）
// 约束：桶内保持插入顺序，不去重；拥有 N 个邮编的记录出现在 N 个桶中。
type MultiIndex struct {
	m map[string][]*Record
}

func newMultiIndex() *MultiIndex {
	return &MultiIndex{m: make(map[string][]*Record)}
}

func (x *MultiIndex) add(key string, r *Record) {
	x.m[key] = append(x.m[key], r)
}

// Get 返回桶内记录副本；键不存在时返回空切片
func (x *MultiIndex) Get(key string) []Record {
	return cloneAll(x.m[key])
}

func (x *MultiIndex) Has(key string) bool {
	_, ok := x.m[key]
	return ok
}

// Len 返回桶数量（不同键的个数）
func (x *MultiIndex) Len() int { return len(x.m) }

func (x *MultiIndex) Keys() []string {
	keys := make([]string, 0, len(x.m))
	for k := range x.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
