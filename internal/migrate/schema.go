package migrate

import (
	"context"
	"database/sql"

	"geo-api/internal/logger"
)

// 背景：首次运行自动创建行政区表与索引，保障后续导入与加载
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；几何以 GeoJSON 文本存于 JSONB
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS communes (
            code TEXT PRIMARY KEY,
            nom TEXT NOT NULL,
            codes_postaux TEXT[] NOT NULL DEFAULT '{}',
            centre JSONB,
            contour JSONB,
            seq BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_communes_seq ON communes(seq)`,
		`CREATE INDEX IF NOT EXISTS idx_communes_codes_postaux ON communes USING GIN (codes_postaux)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
