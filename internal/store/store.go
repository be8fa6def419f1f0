// 包 store: 提供与 PostgreSQL 的数据访问层，读写行政区数据集
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"geo-api/internal/geodb"
	"geo-api/internal/logger"
	"geo-api/internal/metrics"

	"github.com/lib/pq"
	"github.com/paulmach/orb/geojson"
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// 文档注释：按导入顺序读取全部记录
// 背景：作为 geodb.Open 的输入；seq 保持数据集原始顺序，从而邮编桶与空间重叠的取舍与文件加载一致。
// 异常：扫描或几何解码失败直接返回，不跳过坏行。
func (s *Store) LoadRecords(ctx context.Context) ([]geodb.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT code, nom, codes_postaux, centre, contour FROM communes ORDER BY seq, code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]geodb.Record, 0, 1024)
	for rows.Next() {
		var (
			r               geodb.Record
			cps             []string
			centre, contour []byte
		)
		if err := rows.Scan(&r.Code, &r.Name, pq.Array(&cps), &centre, &contour); err != nil {
			return nil, err
		}
		if cps == nil {
			cps = []string{}
		}
		r.PostalCodes = cps
		if r.Centroid, err = decodeGeometry(centre); err != nil {
			return nil, fmt.Errorf("centre %s: %w", r.Code, err)
		}
		if r.Boundary, err = decodeGeometry(contour); err != nil {
			return nil, fmt.Errorf("contour %s: %w", r.Code, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Info("store_load_done", "records", len(out))
	return out, nil
}

// 文档注释：在单个事务中写入一批记录
// 约束：按 code 冲突更新；seqBase 为该批在数据集中的起始位置，批内依次递增。
func (s *Store) UpsertBatch(ctx context.Context, seqBase int, recs []geodb.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO communes(code, nom, codes_postaux, centre, contour, seq, updated_at)
        VALUES($1,$2,$3,$4,$5,$6,now())
        ON CONFLICT (code) DO UPDATE SET nom=EXCLUDED.nom, codes_postaux=EXCLUDED.codes_postaux,
            centre=EXCLUDED.centre, contour=EXCLUDED.contour, seq=EXCLUDED.seq, updated_at=now()`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range recs {
		r := &recs[i]
		centre, err := encodeGeometry(r.Centroid)
		if err != nil {
			return fmt.Errorf("centre %s: %w", r.Code, err)
		}
		contour, err := encodeGeometry(r.Boundary)
		if err != nil {
			return fmt.Errorf("contour %s: %w", r.Code, err)
		}
		cps := r.PostalCodes
		if cps == nil {
			cps = []string{}
		}
		if _, err := stmt.ExecContext(ctx, r.Code, r.Name, pq.Array(cps), centre, contour, int64(seqBase+i)); err != nil {
			return fmt.Errorf("upsert %s: %w", r.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metrics.ImportedRecordsTotal.Add(float64(len(recs)))
	logger.L().Debug("store_batch_ok", "seq", seqBase, "records", len(recs))
	return nil
}

// Count: 当前表内记录数
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM communes").Scan(&n)
	return n, err
}

// encodeGeometry 空几何写 NULL
func encodeGeometry(g *geojson.Geometry) (interface{}, error) {
	if g == nil {
		return nil, nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeGeometry(b []byte) (*geojson.Geometry, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	return geojson.UnmarshalGeometry(b)
}
