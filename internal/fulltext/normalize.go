package fulltext

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 文档注释：文本归一化（索引期与查询期共用）
// 背景：NFD 分解后去掉附加符号（重音），再合成并做大小写折叠；"Saint-Étienne" → "saint-etienne"。
// 约束：transform 链与 Caser 均有内部状态，不可跨 goroutine 复用，每次调用新建。
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// Tokenize 归一化后按非字母数字切分
func Tokenize(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
