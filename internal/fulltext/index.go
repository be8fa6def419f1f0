// 包 fulltext：内存 BM25 倒排索引，提供名称的模糊排名检索
package fulltext

import (
	"math"
	"sort"
	"strings"
	"sync"
)

const (
	k1 = 1.2
	b  = 0.75

	// 前缀扩展命中的权重折扣
	prefixWeight = 0.5
)

// Hit 一条检索结果
type Hit struct {
	Ref   string
	Score float64
}

type posting struct {
	ref   string
	count int
}

// 文档注释：BM25 内存索引
// 背景：查询词既精确匹配索引词，也匹配以其为前缀的索引词（权重打折），满足输入不完整的名称检索。
// 约束：同一 ref 重复 Add 视为替换；排序按得分降序，同分按首次加入顺序。
type Index struct {
	mu          sync.RWMutex
	inverted    map[string][]posting
	docTerms    map[string][]string
	docLengths  map[string]int
	seq         map[string]int
	totalLength int
	nextSeq     int
	sorted      []string
	dirty       bool
}

func New() *Index {
	return &Index{
		inverted:   make(map[string][]posting),
		docTerms:   make(map[string][]string),
		docLengths: make(map[string]int),
		seq:        make(map[string]int),
	}
}

// Add 登记文本
func (x *Index) Add(ref, text string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.docLengths[ref]; ok {
		x.removeLocked(ref)
	} else {
		x.seq[ref] = x.nextSeq
		x.nextSeq++
	}

	tokens := Tokenize(text)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	terms := make([]string, 0, len(tf))
	for t, count := range tf {
		if _, ok := x.inverted[t]; !ok {
			x.dirty = true
		}
		x.inverted[t] = append(x.inverted[t], posting{ref: ref, count: count})
		terms = append(terms, t)
	}
	x.docTerms[ref] = terms
	x.docLengths[ref] = len(tokens)
	x.totalLength += len(tokens)
}

func (x *Index) removeLocked(ref string) {
	for _, t := range x.docTerms[ref] {
		ps := x.inverted[t]
		for i, p := range ps {
			if p.ref == ref {
				ps = append(ps[:i:i], ps[i+1:]...)
				break
			}
		}
		if len(ps) == 0 {
			delete(x.inverted, t)
			x.dirty = true
		} else {
			x.inverted[t] = ps
		}
	}
	x.totalLength -= x.docLengths[ref]
	delete(x.docTerms, ref)
	delete(x.docLengths, ref)
}

// Len 文档数量
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docLengths)
}

// Search 返回按相关度降序的结果；无命中时返回空切片
func (x *Index) Search(query string) []Hit {
	tokens := Tokenize(query)
	terms := x.terms()

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := []Hit{}
	if len(tokens) == 0 || len(x.docLengths) == 0 {
		return hits
	}
	avgDL := float64(x.totalLength) / float64(len(x.docLengths))
	if avgDL == 0 {
		avgDL = 1
	}

	scores := make(map[string]float64)
	seen := make(map[string]struct{}, len(tokens))
	for _, q := range tokens {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		// 同一查询词对同一文档只取最好的一次扩展
		best := make(map[string]float64)
		for _, t := range expand(terms, q) {
			w := 1.0
			if t != q {
				w = prefixWeight
			}
			ps := x.inverted[t]
			idf := x.idf(len(ps))
			for _, p := range ps {
				s := w * idf * x.tfNorm(p, avgDL)
				if s > best[p.ref] {
					best[p.ref] = s
				}
			}
		}
		for ref, s := range best {
			scores[ref] += s
		}
	}

	for ref, s := range scores {
		hits = append(hits, Hit{Ref: ref, Score: s})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return x.seq[hits[i].Ref] < x.seq[hits[j].Ref]
	})
	return hits
}

func (x *Index) tfNorm(p posting, avgDL float64) float64 {
	tf := float64(p.count)
	dl := float64(x.docLengths[p.ref])
	return tf * (k1 + 1) / (tf + k1*(1-b+b*(dl/avgDL)))
}

// IDF = log(1 + (N - n + 0.5) / (n + 0.5))
func (x *Index) idf(df int) float64 {
	n := float64(len(x.docLengths))
	d := float64(df)
	return math.Log(1 + (n-d+0.5)/(d+0.5))
}

// terms 返回有序词表；词表在下一次 Add 前不变
func (x *Index) terms() []string {
	x.mu.RLock()
	if !x.dirty {
		t := x.sorted
		x.mu.RUnlock()
		return t
	}
	x.mu.RUnlock()

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.dirty {
		t := make([]string, 0, len(x.inverted))
		for term := range x.inverted {
			t = append(t, term)
		}
		sort.Strings(t)
		x.sorted = t
		x.dirty = false
	}
	return x.sorted
}

// expand 在有序词表中找出 q 本身及以 q 为前缀的全部词
func expand(terms []string, q string) []string {
	i := sort.SearchStrings(terms, q)
	var out []string
	for ; i < len(terms) && strings.HasPrefix(terms[i], q); i++ {
		out = append(out, terms[i])
	}
	return out
}
