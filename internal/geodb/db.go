package geodb

import (
	"fmt"
	"time"

	"geo-api/internal/fulltext"
	"geo-api/internal/logger"
	"geo-api/internal/metrics"
	"geo-api/internal/pip"
)

// 文档注释：构建参数
// 约束：Records 优先（此时 SourcePath 只作为来源标签）；为空时从 SourcePath 加载。Locator/Text 为空时使用内置实现（pip / fulltext）。
type Options struct {
	Records    []Record
	SourcePath string
	Locator    PointLocator
	Text       TextEngine
}

// 文档注释：只读行政区库
// 背景：记录库与四类索引同生命周期，一次性构建；构建完成后全部结构不可变，可被任意多个 goroutine 并发查询而无需加锁。
type DB struct {
	records []Record
	unique  *UniqueIndex
	postal  *MultiIndex
	spatial *SpatialIndex
	text    *TextIndex
	builtAt time.Time
	source  string
}

// 文档注释：构建库与全部索引
// 背景：单次遍历记录库，逐条写入唯一键、邮编、空间、文本四类索引。
// 异常：仅返回 *DatasetLoadError；重复 code 视为数据集损坏（ErrDuplicateCode）。
func Open(opts Options) (*DB, error) {
	t0 := time.Now()
	src := opts.SourcePath
	var input []Record
	if opts.Records != nil {
		input = opts.Records
		if src == "" {
			src = "memory"
		}
	} else {
		if src == "" {
			return nil, &DatasetLoadError{Err: fmt.Errorf("no records and no source path")}
		}
		recs, err := LoadRecords(src)
		if err != nil {
			return nil, err
		}
		input = recs
	}

	loc := opts.Locator
	if loc == nil {
		loc = pip.New()
	}
	te := opts.Text
	if te == nil {
		te = fulltext.New()
	}

	db := &DB{
		records: make([]Record, len(input)),
		unique:  newUniqueIndex(len(input)),
		postal:  newMultiIndex(),
		spatial: newSpatialIndex(loc),
		text:    newTextIndex(te),
		source:  src,
	}
	for i := range input {
		if input[i].Code == "" {
			return nil, &DatasetLoadError{Source: src, Err: fmt.Errorf("%w: index %d", ErrMissingCode, i)}
		}
		if db.unique.Has(input[i].Code) {
			return nil, &DatasetLoadError{Source: src, Err: fmt.Errorf("%w: %s", ErrDuplicateCode, input[i].Code)}
		}
		db.records[i] = input[i].Clone()
		db.records[i].Score = 0
		r := &db.records[i]

		db.unique.put(r.Code, r)
		for _, cp := range r.PostalCodes {
			db.postal.add(cp, r)
		}
		if _, err := db.spatial.insert(r); err != nil {
			return nil, &DatasetLoadError{Source: src, Err: fmt.Errorf("spatial index %s: %w", r.Code, err)}
		}
		db.text.add(r)
	}
	db.builtAt = time.Now()
	metrics.BuildDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	metrics.RecordsIndexed.Set(float64(len(db.records)))
	logger.L().Info("geodb_build_done",
		"source", src,
		"records", len(db.records),
		"postal_codes", db.postal.Len(),
		"boundaries", db.spatial.Len(),
		"ms", time.Since(t0).Milliseconds(),
	)
	return db, nil
}

// Records 返回记录库副本（原始顺序）
func (db *DB) Records() []Record {
	out := make([]Record, 0, len(db.records))
	for i := range db.records {
		out = append(out, db.records[i].Clone())
	}
	return out
}

func (db *DB) Len() int                    { return len(db.records) }
func (db *DB) UniqueIndex() *UniqueIndex   { return db.unique }
func (db *DB) PostalIndex() *MultiIndex    { return db.postal }
func (db *DB) SpatialIndex() *SpatialIndex { return db.spatial }
func (db *DB) TextIndex() *TextIndex       { return db.text }
func (db *DB) BuiltAt() time.Time          { return db.builtAt }
func (db *DB) Source() string              { return db.source }

// QueryByName 名称检索，结果副本带 Score
func (db *DB) QueryByName(name string) []Record {
	hits := db.text.Search(name)
	out := make([]Record, 0, len(hits))
	for _, h := range hits {
		r, ok := db.unique.lookup(h.Ref)
		if !ok {
			continue
		}
		c := r.Clone()
		c.Score = h.Score
		out = append(out, c)
	}
	return out
}

func (db *DB) QueryByPostalCode(cp string) []Record {
	return db.postal.Get(cp)
}

func (db *DB) QueryByCode(code string) []Record {
	if r, ok := db.unique.Get(code); ok {
		return []Record{r}
	}
	return []Record{}
}

// QueryByLonLat 坐标顺序与 GeoJSON 一致：先经度后纬度
func (db *DB) QueryByLonLat(lon, lat float64) []Record {
	if r, ok := db.spatial.QueryPoint(lon, lat); ok {
		return []Record{r}
	}
	return []Record{}
}
