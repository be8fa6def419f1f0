package geodb

import "sort"

// 文档注释：唯一键索引（code → 记录）
// 约束：重复键后写覆盖；对外只读，Get 返回副本。
type UniqueIndex struct {
	m map[string]*Record
}

func newUniqueIndex(size int) *UniqueIndex {
	return &UniqueIndex{m: make(map[string]*Record, size)}
}

func (x *UniqueIndex) put(key string, r *Record) { x.m[key] = r }

func (x *UniqueIndex) lookup(key string) (*Record, bool) {
	r, ok := x.m[key]
	return r, ok
}

// Get 精确查找
func (x *UniqueIndex) Get(key string) (Record, bool) {
	r, ok := x.m[key]
	if !ok {
		return Record{}, false
	}
	return r.Clone(), true
}

func (x *UniqueIndex) Has(key string) bool {
	_, ok := x.m[key]
	return ok
}

func (x *UniqueIndex) Len() int { return len(x.m) }

// Keys 返回排序后的全部键
func (x *UniqueIndex) Keys() []string {
	keys := make([]string, 0, len(x.m))
	for k := range x.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
