package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prperemyshlev/pages-service/internal/config"
	"github.com/prperemyshlev/pages-service/pkg/database"
	"github.com/prperemyshlev/pages-service/pkg/observability"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const serviceName = "pages-service"

// Infrastructure is the set of long-lived resources the application runs on
type Infrastructure interface {
	Postgres() *database.Postgres
	// Redis is nil unless REDIS_ENABLED is set
	Redis() *database.Redis
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	postgres  *database.Postgres
	redis     *database.Redis
	logger    *zap.Logger
	telemetry *observability.Telemetry
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env, observability.LogOptions{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	postgres, err := database.NewPostgres(database.PoolConfig{
		DSN:             cfg.PostgresDSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxIdleTime: cfg.Postgres.MaxIdleTime.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	i.postgres = postgres

	if cfg.Redis.Enabled {
		redis, err := database.NewRedis(ctx, database.RedisOptions{
			Addr:     cfg.Redis.Address(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			_ = i.postgres.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		i.redis = redis
	}

	telemetry, err := observability.NewTelemetry(observability.TelemetryOptions{
		ServiceName:    serviceName,
		Environment:    cfg.Env,
		RuntimeMetrics: true,
	})
	if err != nil {
		_ = i.postgres.Close()
		if i.redis != nil {
			_ = i.redis.Close()
		}
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.telemetry = telemetry

	logger.Info("Infrastructure ready",
		zap.Bool("redis", i.redis != nil),
		zap.Bool("database_url", cfg.DatabaseURL != ""),
	)

	return i, nil
}

func (i *infrastructure) Postgres() *database.Postgres {
	return i.postgres
}

func (i *infrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.telemetry.Handler()
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.telemetry.MeterProvider()
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	errs := make(chan error, 3)

	go func() { errs <- i.postgres.Close() }()
	go func() {
		if i.redis == nil {
			errs <- nil
			return
		}
		errs <- i.redis.Close()
	}()
	go func() { errs <- i.telemetry.Shutdown(ctx) }()

	err := errors.Join(<-errs, <-errs, <-errs)
	if err != nil {
		i.logger.Error("Shutdown finished with errors", zap.Error(err))
	}
	// Sync fails on stdout in some environments
	_ = i.logger.Sync()
	return err
}
