package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/ryhazerus/cardvault/internal/config"
	"github.com/ryhazerus/cardvault/kv"
)

// openStore builds the kv backend described by cfg.
func openStore(ctx context.Context, cfg config.StorageConfig) (kv.Store, error) {
	var persistent kv.Store

	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemoryStore(), nil

	case config.BackendSQLite:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		s, err := kv.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		persistent = s

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		persistent = kv.NewRedisStore(client)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.Tiered {
		return kv.NewTieredStore(persistent), nil
	}
	return persistent, nil
}
