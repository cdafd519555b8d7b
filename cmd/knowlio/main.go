package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/target/knowlio-web/config"
	"github.com/target/knowlio-web/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	provider, err := bootstrap.BuildIdentityProvider(ctx, bootstrap.AuthConfig{
		Auth:    cfg.Auth,
		Session: cfg.Session,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:   &cfg,
		DB:       db,
		Redis:    redisClient,
		Provider: provider,
		Metrics:  bootstrap.BuildMetricsClient(ctx, cfg.Observability, logger),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: &services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting knowlio",
		"auth_mode", cfg.Auth.Mode,
		"dev", cfg.IsDev,
		"redis_enabled", cfg.Redis.Enabled,
		"metrics_enabled", cfg.Observability.Metrics.IsEnabled(),
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}

// initInfrastructure connects Postgres and, when enabled, Redis.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	if !cfg.Redis.Enabled {
		logger.InfoContext(ctx, "redis disabled; sessions are kept in memory and events stay local")
		return db, nil, nil
	}

	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database after redis connect failure", "error", cerr)
			return nil, nil, fmt.Errorf("connect redis: %w", errors.Join(err, fmt.Errorf("close database: %w", cerr)))
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	return db, redisClient, nil
}
