package fx

import (
	"context"
	"fmt"

	"github.com/amityadav/trendfinder/internal/ai"
	"github.com/amityadav/trendfinder/internal/config"
	"github.com/amityadav/trendfinder/internal/dispatch"
	"github.com/amityadav/trendfinder/internal/service"
	"github.com/amityadav/trendfinder/internal/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ============================================================================
// FX MODULES - Group related providers together
// ============================================================================

// ConfigModule provides application configuration
var ConfigModule = fx.Module("config",
	fx.Provide(config.Load),
)

// LoggerModule provides the structured logger
var LoggerModule = fx.Module("logger",
	fx.Provide(NewLogger),
)

// AIModule provides the search-grounded generator
var AIModule = fx.Module("ai",
	fx.Provide(NewGenerator),
)

// DispatchModule provides the query dispatcher
var DispatchModule = fx.Module("dispatch",
	fx.Provide(NewDispatcher),
)

// WorkerModule provides the scheduled refresher
var WorkerModule = fx.Module("worker",
	fx.Provide(NewRefresher),
)

// ServiceModule provides gRPC service implementations
var ServiceModule = fx.Module("service",
	fx.Provide(NewInsightsService),
)

// ============================================================================
// PROVIDER FUNCTIONS - Constructors that FX will call automatically
// ============================================================================

// NewLogger builds the application logger from LOG_FORMAT and LOG_LEVEL
func NewLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

// NewGenerator creates the generator for the configured AI provider
func NewGenerator(cfg config.Config, log *zap.Logger) (ai.Generator, error) {
	gen, err := ai.NewGenerator(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("generator initialized", zap.String("provider", gen.Name()))
	return gen, nil
}

// NewDispatcher creates the dispatcher and closes it on shutdown
func NewDispatcher(lc fx.Lifecycle, gen ai.Generator, cfg config.Config, log *zap.Logger) *dispatch.Dispatcher {
	d := dispatch.New(gen, log, cfg.RequestTimeout)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			d.Close()
			return nil
		},
	})
	log.Info("dispatcher initialized", zap.Duration("request_timeout", cfg.RequestTimeout))
	return d
}

// NewRefresher creates the refresh worker (optional - nil without REFRESH_SCHEDULE)
func NewRefresher(d *dispatch.Dispatcher, cfg config.Config, log *zap.Logger) (*worker.Refresher, error) {
	if cfg.RefreshSchedule == "" {
		log.Info("refresh worker disabled (no REFRESH_SCHEDULE)")
		return nil, nil
	}
	return worker.NewRefresher(d, cfg.RefreshSchedule, cfg.RefreshTimezone, log)
}

// NewInsightsService creates the insights gRPC service
func NewInsightsService(d *dispatch.Dispatcher) *service.InsightsService {
	return service.NewInsightsService(d)
}
