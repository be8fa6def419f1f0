// 包 utils：PostgreSQL 与 Redis 连接工具，参数统一来自 config
package utils

import (
	"geo-api/internal/config"
	"geo-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：按配置打开 Redis 客户端
// 约束：未配置主机时返回 nil，调用方据此关闭缓存
func OpenRedis(c config.Redis) *redis.Client {
	if c.Host == "" {
		return nil
	}
	logger.L().Debug("redis_open", "addr", c.Addr(), "db", c.DB)
	return redis.NewClient(&redis.Options{Addr: c.Addr(), Password: c.Pass, DB: c.DB})
}
