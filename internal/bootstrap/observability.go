package bootstrap

import (
	"context"
	"log/slog"

	"github.com/fiberq/fiberq-web/config"
	"github.com/fiberq/fiberq-web/internal/observability/statsd"
)

// BuildMetrics creates the StatsD client. A failed dial is logged and disables
// metrics rather than preventing startup.
func BuildMetrics(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.MetricsPrefix,
		Logger:  logger.With("component", "metrics"),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}
