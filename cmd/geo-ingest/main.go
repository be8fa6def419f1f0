// 数据导入工具：读取行政区数据集（文件或 URL）并批量写入 PostgreSQL
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geo-api/internal/config"
	"geo-api/internal/ingest"
	"geo-api/internal/logger"
	"geo-api/internal/migrate"
	"geo-api/internal/store"
	"geo-api/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()

	src := flag.String("src", envOr("SRC_URL", cfg.DatasetPath), "dataset file path or http(s) URL (.gz supported)")
	batch := flag.Int("batch", 500, "records per transaction")
	workers := flag.Int("workers", 4, "concurrent transactions")
	weekly := flag.Bool("weekly", false, "stay running and re-import every week")
	tz := flag.String("tz", "Europe/Paris", "time zone for -weekly")
	hour := flag.Int("hour", 3, "hour of day for -weekly")
	flag.Parse()

	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenPostgres(ctx, cfg.ImportDSN(), cfg.Postgres)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	opt := ingest.Options{BatchSize: *batch, Workers: *workers}

	n, err := ingest.FetchAndImport(ctx, st, *src, opt)
	if err != nil {
		l.Error("ingest_error", "src", *src, "err", err)
		os.Exit(1)
	}
	total, _ := st.Count(ctx)
	l.Info("ingest_ok", "records", n, "table_total", total)

	if !*weekly {
		return
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		l.Error("tz_error", "tz", *tz, "err", err)
		os.Exit(1)
	}
	ingest.RunWeekly(ctx, st, *src, opt, loc, time.Monday, *hour)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
