package bootstrap

import (
	"context"
	"log/slog"

	"github.com/target/knowlio-web/config"
	"github.com/target/knowlio-web/internal/observability/statsd"
)

// BuildMetricsClient returns a StatsD client when metrics are enabled. A dial
// failure is logged and metrics stay off; it never blocks startup.
func BuildMetricsClient(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Metrics.IsEnabled() {
		return nil
	}

	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialise statsd client", "error", err)
		return nil
	}
	logger.InfoContext(ctx, "statsd metrics enabled", "address", cfg.Metrics.StatsdAddress, "prefix", cfg.Metrics.Prefix)
	return client
}
