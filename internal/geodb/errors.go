package geodb

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCriteria 查询未携带任何可识别条件
	ErrNoCriteria = errors.New("geodb: no search criteria")
	// ErrDuplicateCode 数据集中出现重复的 code
	ErrDuplicateCode = errors.New("geodb: duplicate code")
	// ErrMissingCode 数据集中存在缺少 code 的记录
	ErrMissingCode = errors.New("geodb: record without code")
)

// 文档注释：数据集加载失败（构建期唯一的错误类型）
// 约束：构建是全有或全无的；返回该错误时不会返回任何可用的 DB。
type DatasetLoadError struct {
	Source string
	Err    error
}

func (e *DatasetLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("geodb: load dataset: %v", e.Err)
	}
	return fmt.Sprintf("geodb: load dataset %q: %v", e.Source, e.Err)
}

func (e *DatasetLoadError) Unwrap() error { return e.Err }

// 文档注释：查询条件形状错误
// 背景：例如只给出纬度不给经度；此类输入直接报错，不静默忽略，以免返回误导性的部分结果。
type PredicateShapeError struct {
	Predicate string
	Reason    string
}

func (e *PredicateShapeError) Error() string {
	return fmt.Sprintf("geodb: invalid predicate %q: %s", e.Predicate, e.Reason)
}

// IsCriteriaError 判断是否为调用方条件错误（HTTP 层映射为 400）
func IsCriteriaError(err error) bool {
	var pe *PredicateShapeError
	return errors.Is(err, ErrNoCriteria) || errors.As(err, &pe)
}
