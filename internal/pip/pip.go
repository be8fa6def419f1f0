// 包 pip：点入多边形定位结构（R-Tree 包围盒候选 → 精确包含判定）
package pip

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrUnsupportedGeometry 仅支持 Polygon/MultiPolygon
	ErrUnsupportedGeometry = errors.New("pip: unsupported geometry")
	// ErrEmptyGeometry 几何没有任何坐标
	ErrEmptyGeometry = errors.New("pip: empty geometry")
)

// 退化包围盒（单点/水平线）补齐的最小边长
const minSpan = 1e-9

type entry struct {
	ref  string
	seq  int
	geom orb.Geometry
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

// 文档注释：点定位索引
// 背景：先用 R-Tree 以包围盒筛出候选，再用 planar 做偶奇规则包含判定，支持洞与多面。
// 约束：构建期写入，之后只读；多个边界同时包含查询点时，先插入者胜出。
type Index struct {
	tree *rtreego.Rtree
	n    int
}

func New() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)}
}

// Insert 登记一个边界；ref 为调用方的引用键
func (x *Index) Insert(ref string, g orb.Geometry) error {
	switch t := g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	case nil:
		return fmt.Errorf("%w: nil", ErrUnsupportedGeometry)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedGeometry, t.GeoJSONType())
	}
	b := g.Bound()
	if b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] {
		return ErrEmptyGeometry
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{span(b.Max[0] - b.Min[0]), span(b.Max[1] - b.Min[1])},
	)
	if err != nil {
		return err
	}
	x.tree.Insert(&entry{ref: ref, seq: x.n, geom: orb.Clone(g), rect: rect})
	x.n++
	return nil
}

// Locate 返回包含该点的边界引用
func (x *Index) Locate(pt orb.Point) (string, bool) {
	cands := x.tree.SearchIntersect(rtreego.Point{pt[0], pt[1]}.ToRect(minSpan))
	if len(cands) == 0 {
		return "", false
	}
	es := make([]*entry, 0, len(cands))
	for _, c := range cands {
		es = append(es, c.(*entry))
	}
	sort.Slice(es, func(i, j int) bool { return es[i].seq < es[j].seq })
	for _, e := range es {
		if contains(e.geom, pt) {
			return e.ref, true
		}
	}
	return "", false
}

// Len 已登记边界数量
func (x *Index) Len() int { return x.n }

func contains(g orb.Geometry, pt orb.Point) bool {
	switch t := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(t, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(t, pt)
	}
	return false
}

func span(v float64) float64 {
	if v < minSpan {
		return minSpan
	}
	return v
}
