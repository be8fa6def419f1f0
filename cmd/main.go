// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geo-api/internal/api"
	"geo-api/internal/config"
	"geo-api/internal/geodb"
	"geo-api/internal/logger"
	"geo-api/internal/middleware"
	"geo-api/internal/migrate"
	"geo-api/internal/store"
	"geo-api/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	l.Debug("log_init_ok")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		l.Error("geodb_open_error", "err", err)
		os.Exit(1)
	}

	var cache *api.Cache
	if cfg.CacheEnabled {
		rc := utils.OpenRedis(cfg.Redis)
		if rc == nil {
			l.Info("redis_disabled")
		} else if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
			_ = rc.Close()
		} else {
			l.Info("redis_ping_ok")
			defer rc.Close()
			cache = api.NewCache(rc, cfg.CacheTTL, db.BuiltAt())
		}
	}

	// 背景：GeoIP 库可选；缺失时 ip 参数返回 501，不影响其他查询
	var ipl api.IPLocator
	if cfg.GeoIPPath != "" {
		g, err := api.OpenGeoIP(cfg.GeoIPPath)
		if err != nil {
			l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
		} else {
			defer g.Close()
			ipl = g
			l.Info("geoip_ready", "path", cfg.GeoIPPath)
		}
	}

	qps := 0
	if cfg.RateLimitEnabled {
		qps = cfg.RateLimitQPS
	}
	handler := middleware.Wrap(api.Router(api.New(db, cache, ipl, l), cfg.APIBase), qps)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if cfg.TLSEnabled {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "geo-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// openDB 按配置选择数据来源：DATASET_DSN 非空时读 PostgreSQL，否则读文件
func openDB(ctx context.Context, cfg config.Server) (*geodb.DB, error) {
	if cfg.DatasetDSN == "" {
		return geodb.Open(geodb.Options{SourcePath: cfg.DatasetPath})
	}
	pg, err := utils.OpenPostgres(ctx, cfg.DatasetDSN, cfg.Postgres)
	if err != nil {
		return nil, &geodb.DatasetLoadError{Source: "postgres", Err: err}
	}
	defer pg.Close()
	if err := migrate.EnsureSchema(ctx, pg); err != nil {
		return nil, &geodb.DatasetLoadError{Source: "postgres", Err: err}
	}
	recs, err := store.AttachDB(pg).LoadRecords(ctx)
	if err != nil {
		return nil, &geodb.DatasetLoadError{Source: "postgres", Err: err}
	}
	return geodb.Open(geodb.Options{Records: recs, SourcePath: "postgres"})
}
