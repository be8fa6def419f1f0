// 包 geodb：行政区（公社）只读内存库，构建期一次性建立四类索引，查询期按条件组合求交
package geodb

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// 文档注释：行政区记录
// 背景：字段名与上游 communes 数据集保持一致，便于直接解码与原样输出。
// 约束：Code 为唯一身份键；构建后不可变；Score 仅出现在文本检索返回的副本上，索引内原件恒为 0。
type Record struct {
	Code        string            `json:"code"`
	Name        string            `json:"nom"`
	PostalCodes []string          `json:"codesPostaux"`
	Centroid    *geojson.Geometry `json:"centre,omitempty"`
	Boundary    *geojson.Geometry `json:"contour,omitempty"`
	Score       float64           `json:"_score,omitempty"`
}

// Clone 返回可交给调用方的深拷贝；修改副本的邮编或几何不影响索引
func (r Record) Clone() Record {
	c := r
	if r.PostalCodes != nil {
		c.PostalCodes = make([]string, len(r.PostalCodes))
		copy(c.PostalCodes, r.PostalCodes)
	}
	c.Centroid = cloneGeometry(r.Centroid)
	c.Boundary = cloneGeometry(r.Boundary)
	return c
}

func cloneGeometry(g *geojson.Geometry) *geojson.Geometry {
	if g == nil {
		return nil
	}
	c := &geojson.Geometry{Type: g.Type, Coordinates: orb.Clone(g.Coordinates)}
	if g.Geometries != nil {
		c.Geometries = make([]*geojson.Geometry, len(g.Geometries))
		for i, sub := range g.Geometries {
			c.Geometries[i] = cloneGeometry(sub)
		}
	}
	return c
}

func cloneAll(rs []*Record) []Record {
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Clone())
	}
	return out
}
