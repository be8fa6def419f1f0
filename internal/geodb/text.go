package geodb

import "geo-api/internal/fulltext"

// TextEngine 名称检索外部结构的能力契约；Search 结果需按相关度降序
type TextEngine interface {
	Add(ref, text string)
	Search(query string) []fulltext.Hit
}

// 文档注释：文本索引适配器
// 背景：以 code 为引用登记名称；索引只承担相关度计算，不存放记录，结果由查询编排器经唯一键索引还原。
type TextIndex struct {
	engine TextEngine
	n      int
}

func newTextIndex(e TextEngine) *TextIndex {
	return &TextIndex{engine: e}
}

func (t *TextIndex) add(r *Record) {
	t.engine.Add(r.Code, r.Name)
	t.n++
}

// Search 返回 {code, score} 排名列表
func (t *TextIndex) Search(query string) []fulltext.Hit {
	hits := t.engine.Search(query)
	if hits == nil {
		return []fulltext.Hit{}
	}
	return hits
}

func (t *TextIndex) Len() int { return t.n }
