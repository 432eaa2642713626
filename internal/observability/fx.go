package observability

import (
	"github.com/chantierflow/chantierflow/internal/config"
	"github.com/chantierflow/chantierflow/internal/observability/logger"
	"github.com/chantierflow/chantierflow/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(loggerConfig),
	fx.Provide(logger.New),
	fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
	fx.Provide(metrics.NewHTTPMetrics),
)

func loggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
		Version:     cfg.AppVersion,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	}
}
