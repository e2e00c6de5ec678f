package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/redis/go-redis/v9"
	gormlogger "gorm.io/gorm/logger"
)

// Local 可监听的本地存储
type Local interface {
	Store
	Watcher
}

// Open 按配置打开客户端存储
func Open(cfg config.StorageConfig, redisCfg config.RedisConfig) (Local, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "memory":
		return NewMemoryStore(), nil
	case "", "sqlite":
		dsn := strings.TrimSpace(cfg.DSN)
		if dsn == "" {
			dsn = "./db/local_storage.db"
		}
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir failed: %w", err)
			}
		}
		db, err := models.OpenDB("sqlite", dsn, models.DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}, gormlogger.Silent)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db, cfg.Namespace, 0)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		return NewRedisStore(client, strings.TrimSpace(redisCfg.Prefix), cfg.Namespace)
	default:
		return nil, fmt.Errorf("%w: %s", ErrDriverUnsupported, cfg.Driver)
	}
}
