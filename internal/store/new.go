package store

import (
	"context"
	"fmt"

	"github.com/rohankatakam/reqtrack/internal/config"
)

// New builds the Store selected by cfg.Storage.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileStore(cfg.FilePath)
	case "bolt":
		return NewBoltStore(cfg.BoltPath)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, "", cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Type)
	}
}
