package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/knowlio-web/config"
	"github.com/target/knowlio-web/internal/bootstrap"
)

var errRedisNotConfigured = errors.New("redis not configured")

// connectDB opens the Postgres connection used by catalog commands.
func connectDB(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

// connectRedis returns a connected client, or errRedisNotConfigured when
// Redis is disabled or has no address.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectRedis(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{RedisConfig: *cfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil || !cfg.Enabled {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

func closeRedis(logger *slog.Logger, client redis.UniversalClient) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}

func closeDB(logger *slog.Logger, db *sql.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("db close failed", "error", err)
	}
}
