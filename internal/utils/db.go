package utils

import (
	"context"
	"database/sql"
	"time"

	"geo-api/internal/config"
	"geo-api/internal/logger"

	_ "github.com/lib/pq"
)

// OpenPostgres 打开连接池并做一次带超时的连通性检查
func OpenPostgres(ctx context.Context, dsn string, pg config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pg.MaxOpenConns)
	db.SetMaxIdleConns(pg.MaxIdleConns)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.L().Debug("pg_open", "host", pg.Host, "db", pg.DB, "max_open", pg.MaxOpenConns)
	return db, nil
}
