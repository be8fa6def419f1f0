// 包 config：集中读取环境变量（支持 .env），主入口只做装配
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server 服务级配置
type Server struct {
	Addr      string
	APIBase   string
	LogLevel  string
	LogFormat string

	// 数据集：DatasetDSN 非空时从 PostgreSQL 读取，否则读 DatasetPath
	DatasetPath string
	DatasetDSN  string

	GeoIPPath string

	CacheEnabled bool
	CacheTTL     time.Duration

	RateLimitEnabled bool
	RateLimitQPS     int

	TLSEnabled  bool
	TLSCertPath string
	TLSKeyPath  string

	Postgres Postgres
	Redis    Redis
}

type Postgres struct {
	Host         string
	Port         string
	User         string
	Password     string
	DB           string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type Redis struct {
	Host string
	Port string
	Pass string
	DB   int
}

// LoadDotEnv 依次加载 .env 与 data/env/.env；文件缺失不是错误，已存在的环境变量不被覆盖
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// FromEnv 读取环境变量，缺省值面向本地开发
func FromEnv() Server {
	return Server{
		Addr:             getenv("ADDR", ":8080"),
		APIBase:          getenv("API_BASE", ""),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		DatasetPath:      getenv("DATASET_PATH", filepath.Join("data", "communes.json")),
		DatasetDSN:       os.Getenv("DATASET_DSN"),
		GeoIPPath:        os.Getenv("GEOIP_DB_PATH"),
		CacheEnabled:     os.Getenv("REDIS_ENABLED") == "true",
		CacheTTL:         time.Duration(getint("CACHE_TTL_S", 3600)) * time.Second,
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     getint("RATE_LIMIT_QPS", 200),
		TLSEnabled:       os.Getenv("TLS_ENABLE") == "true",
		TLSCertPath:      getenv("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:       getenv("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
		Postgres: Postgres{
			Host:         getenv("PG_HOST", "localhost"),
			Port:         getenv("PG_PORT", "5432"),
			User:         getenv("PG_USER", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			DB:           getenv("PG_DB", "geoapi"),
			SSLMode:      getenv("PG_SSLMODE", "disable"),
			MaxOpenConns: getint("PG_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getint("PG_MAX_IDLE_CONNS", 5),
		},
		Redis: Redis{
			Host: getenv("REDIS_HOST", "127.0.0.1"),
			Port: getenv("REDIS_PORT", "6379"),
			Pass: os.Getenv("REDIS_PASS"),
			DB:   getint("REDIS_DB", 0),
		},
	}
}

// DSN 组装 PostgreSQL 连接串
func (p Postgres) DSN() string {
	dsn := "postgres://" + p.User
	if p.Password != "" {
		dsn += ":" + p.Password
	}
	return dsn + "@" + p.Host + ":" + p.Port + "/" + p.DB + "?sslmode=" + p.SSLMode
}

// ImportDSN 导入与读取共用的连接串：优先 DATASET_DSN，其次由 PG_* 组装
func (s Server) ImportDSN() string {
	if s.DatasetDSN != "" {
		return s.DatasetDSN
	}
	return s.Postgres.DSN()
}

func (r Redis) Addr() string { return r.Host + ":" + r.Port }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// 解析失败或为负时回退默认值
func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
