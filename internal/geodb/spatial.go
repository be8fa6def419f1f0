package geodb

import (
	"github.com/paulmach/orb"
)

// 文档注释：点定位外部结构的能力契约
// 约束：Insert 只会收到 Polygon/MultiPolygon；Locate 返回包含该点的引用，重叠时的取舍由实现决定。
type PointLocator interface {
	Insert(ref string, g orb.Geometry) error
	Locate(pt orb.Point) (string, bool)
}

// 文档注释：空间索引适配器
// 背景：几何判定完全委托给 PointLocator，适配器只负责过滤可索引的边界并把引用还原为记录。
// 约束：没有边界、边界不是面状几何或面为空的记录不参与空间索引。
type SpatialIndex struct {
	loc   PointLocator
	byRef map[string]*Record
}

func newSpatialIndex(loc PointLocator) *SpatialIndex {
	return &SpatialIndex{loc: loc, byRef: make(map[string]*Record)}
}

func (s *SpatialIndex) insert(r *Record) (bool, error) {
	if r.Boundary == nil {
		return false, nil
	}
	g := r.Boundary.Geometry()
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return false, nil
	}
	if g.Bound().IsEmpty() {
		return false, nil
	}
	if err := s.loc.Insert(r.Code, g); err != nil {
		return false, err
	}
	s.byRef[r.Code] = r
	return true, nil
}

// QueryPoint 按经纬度查找所在行政区
func (s *SpatialIndex) QueryPoint(lon, lat float64) (Record, bool) {
	ref, ok := s.loc.Locate(orb.Point{lon, lat})
	if !ok {
		return Record{}, false
	}
	r, ok := s.byRef[ref]
	if !ok {
		return Record{}, false
	}
	return r.Clone(), true
}

// Len 参与空间索引的记录数
func (s *SpatialIndex) Len() int { return len(s.byRef) }
