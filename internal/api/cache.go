package api

import (
	"context"
	"strconv"
	"time"

	"geo-api/internal/logger"
	"geo-api/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// 文档注释：查询结果缓存（Redis）
// 背景：库构建后不可变，同一组条件的结果稳定，可直接缓存序列化后的响应体。
// 约束：键带上库的构建时间作为代次，重启加载新数据后旧键自然失效；nil 接收者等价于关闭缓存。
type Cache struct {
	rc     *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCache(rc *redis.Client, ttl time.Duration, generation time.Time) *Cache {
	if rc == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{rc: rc, ttl: ttl, prefix: "communes:" + strconv.FormatInt(generation.UnixNano(), 36) + ":"}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.rc.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L().Warn("cache_get_error", "err", err)
		}
		metrics.RedisMissesTotal.Inc()
		return nil, false
	}
	metrics.RedisHitsTotal.Inc()
	return b, true
}

// Set 写失败只记录日志，不影响响应
func (c *Cache) Set(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	if err := c.rc.Set(ctx, c.prefix+key, body, c.ttl).Err(); err != nil {
		logger.L().Warn("cache_set_error", "err", err)
	}
}
