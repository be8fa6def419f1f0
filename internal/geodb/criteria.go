package geodb

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// 查询参数名，与上游 API 保持一致
const (
	ParamName       = "nom"
	ParamPostalCode = "codePostal"
	ParamCode       = "code"
	ParamLatitude   = "lat"
	ParamLongitude  = "lon"
)

// 文档注释：查询条件
// 约束：字段为 nil 表示未提供；Latitude 与 Longitude 必须成对出现。
type Criteria struct {
	Name       *string
	PostalCode *string
	Code       *string
	Latitude   *float64
	Longitude  *float64
}

// Count 已提供的谓词数（经纬度合计为一个）
func (c Criteria) Count() int {
	n := 0
	if c.Name != nil {
		n++
	}
	if c.PostalCode != nil {
		n++
	}
	if c.Code != nil {
		n++
	}
	if c.Latitude != nil || c.Longitude != nil {
		n++
	}
	return n
}

// Validate 检查条件形状
func (c Criteria) Validate() error {
	if c.Count() == 0 {
		return ErrNoCriteria
	}
	if (c.Latitude == nil) != (c.Longitude == nil) {
		if c.Latitude == nil {
			return &PredicateShapeError{Predicate: ParamLongitude, Reason: "lon requires lat"}
		}
		return &PredicateShapeError{Predicate: ParamLatitude, Reason: "lat requires lon"}
	}
	if c.Latitude != nil {
		lat, lon := *c.Latitude, *c.Longitude
		if math.IsNaN(lat) || lat < -90 || lat > 90 {
			return &PredicateShapeError{Predicate: ParamLatitude, Reason: "out of range [-90, 90]"}
		}
		if math.IsNaN(lon) || lon < -180 || lon > 180 {
			return &PredicateShapeError{Predicate: ParamLongitude, Reason: "out of range [-180, 180]"}
		}
	}
	return nil
}

// 文档注释：规范化缓存键
// 背景：同一组条件无论参数顺序如何都生成相同的键，供响应缓存使用。
func (c Criteria) Key() string {
	var parts []string
	if c.Name != nil {
		parts = append(parts, ParamName+"="+url.QueryEscape(*c.Name))
	}
	if c.PostalCode != nil {
		parts = append(parts, ParamPostalCode+"="+url.QueryEscape(*c.PostalCode))
	}
	if c.Code != nil {
		parts = append(parts, ParamCode+"="+url.QueryEscape(*c.Code))
	}
	if c.Latitude != nil {
		parts = append(parts, ParamLatitude+"="+strconv.FormatFloat(*c.Latitude, 'f', -1, 64))
	}
	if c.Longitude != nil {
		parts = append(parts, ParamLongitude+"="+strconv.FormatFloat(*c.Longitude, 'f', -1, 64))
	}
	return strings.Join(parts, "&")
}

// ParseCriteria 从查询参数构建条件；数值无法解析时返回 *PredicateShapeError
func ParseCriteria(v url.Values) (Criteria, error) {
	var c Criteria
	if v.Has(ParamName) {
		s := v.Get(ParamName)
		c.Name = &s
	}
	if v.Has(ParamPostalCode) {
		s := v.Get(ParamPostalCode)
		c.PostalCode = &s
	}
	if v.Has(ParamCode) {
		s := v.Get(ParamCode)
		c.Code = &s
	}
	for _, p := range []string{ParamLatitude, ParamLongitude} {
		if !v.Has(p) {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Get(p)), 64)
		if err != nil {
			return Criteria{}, &PredicateShapeError{Predicate: p, Reason: "not a number"}
		}
		if p == ParamLatitude {
			c.Latitude = &f
		} else {
			c.Longitude = &f
		}
	}
	return c, nil
}

// 便于构造条件
func Str(s string) *string     { return &s }
func Float(f float64) *float64 { return &f }
