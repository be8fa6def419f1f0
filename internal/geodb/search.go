package geodb

import (
	"strconv"
	"time"

	"geo-api/internal/metrics"
)

// 文档注释：多条件查询编排
// 背景：按固定顺序（名称、邮编、code、坐标）为每个已提供的谓词产出一个部分结果；
// 只有一个谓词时原样返回（保留 Score），多个时按 code 求交。
// 约束：求交保留第一个包含该 code 的部分结果中的元素，顺序跟随第一个部分结果；
// 无条件返回 ErrNoCriteria；不存在的键与互斥条件都得到空切片而非错误。
func (db *DB) Search(c Criteria) ([]Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	t0 := time.Now()
	out := db.search(c)
	metrics.SearchesTotal.WithLabelValues(strconv.Itoa(c.Count())).Inc()
	metrics.SearchDurationUs.Observe(float64(time.Since(t0).Microseconds()))
	if len(out) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	return out, nil
}

func (db *DB) search(c Criteria) []Record {
	partials := make([][]Record, 0, 4)
	if c.Name != nil {
		partials = append(partials, db.QueryByName(*c.Name))
	}
	if c.PostalCode != nil {
		partials = append(partials, db.QueryByPostalCode(*c.PostalCode))
	}
	if c.Code != nil {
		partials = append(partials, db.QueryByCode(*c.Code))
	}
	if c.Latitude != nil && c.Longitude != nil {
		partials = append(partials, db.QueryByLonLat(*c.Longitude, *c.Latitude))
	}
	if len(partials) == 1 {
		return partials[0]
	}
	return intersectByCode(partials)
}

// intersectByCode 保留首个序列中在其余所有序列里都出现的 code，结果按 code 去重
func intersectByCode(parts [][]Record) []Record {
	out := []Record{}
	if len(parts) == 0 {
		return out
	}
	rest := make([]map[string]struct{}, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if len(p) == 0 {
			return out
		}
		set := make(map[string]struct{}, len(p))
		for i := range p {
			set[p[i].Code] = struct{}{}
		}
		rest = append(rest, set)
	}
	seen := make(map[string]struct{}, len(parts[0]))
	for _, r := range parts[0] {
		if _, dup := seen[r.Code]; dup {
			continue
		}
		seen[r.Code] = struct{}{}
		if inAll(rest, r.Code) {
			out = append(out, r)
		}
	}
	return out
}

func inAll(sets []map[string]struct{}, code string) bool {
	for _, s := range sets {
		if _, ok := s[code]; !ok {
			return false
		}
	}
	return true
}
