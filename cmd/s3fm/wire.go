package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/s3fm/auth/jwt"
	"github.com/kbukum/s3fm/authz"
	"github.com/kbukum/s3fm/bootstrap"
	"github.com/kbukum/s3fm/filemanager"
	"github.com/kbukum/s3fm/httpapi"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/observability"
	"github.com/kbukum/s3fm/previewcache"
	"github.com/kbukum/s3fm/redis"
	"github.com/kbukum/s3fm/server"
	"github.com/kbukum/s3fm/server/endpoint"
	"github.com/kbukum/s3fm/server/middleware"
	"github.com/kbukum/s3fm/storage"
	_ "github.com/kbukum/s3fm/storage/memory"
)

// register adds the infrastructure components and defers the manager and
// HTTP server to the configure phase, once the store is connected.
func register(app *bootstrap.App[*AppConfig]) error {
	cfg := app.Cfg

	store := storage.NewComponent(cfg.Storage, providerConfig(cfg), app.Logger)
	if err := app.RegisterComponent(store); err != nil {
		return err
	}
	var cache *redis.Component
	if cfg.Redis.Enabled {
		cache = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(cache); err != nil {
			return err
		}
	}

	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
		metrics, err := setupTelemetry(ctx, a)
		if err != nil {
			return err
		}
		var pc filemanager.PreviewCache
		if cache != nil {
			pc = previewcache.New(cache.Client())
		}
		manager, err := newManager(cfg, store.Store(), pc, metrics, a.Logger)
		if err != nil {
			return err
		}
		srv, err := newServer(cfg, manager, metrics, a.Components.HealthAll, a.Logger)
		if err != nil {
			return err
		}
		return a.RegisterComponent(server.NewComponent(srv))
	})
	return nil
}

func providerConfig(cfg *AppConfig) any {
	if cfg.Storage.Provider == storage.ProviderS3 {
		s3cfg := cfg.S3
		return &s3cfg
	}
	return nil
}

// setupTelemetry installs the OTLP providers when enabled and returns the
// metrics recorder. Without export the recorder writes to the no-op meter.
func setupTelemetry(ctx context.Context, app *bootstrap.App[*AppConfig]) (*observability.Metrics, error) {
	cfg := app.Cfg
	if cfg.Observability.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Observability.TracerConfig(cfg.Name, cfg.Version, cfg.Environment), app.Logger)
		if err != nil {
			return nil, fmt.Errorf("tracer: %w", err)
		}
		mp, err := observability.InitMeter(ctx, cfg.Observability.MeterConfig(cfg.Name, cfg.Version, cfg.Environment), app.Logger)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("meter: %w", err)
		}
		app.OnStop(func(ctx context.Context) error {
			return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
		})
	}
	return observability.NewMetrics(observability.Meter(serviceName))
}

func newManager(cfg *AppConfig, store storage.ObjectStore, cache filemanager.PreviewCache, metrics *observability.Metrics, log *logger.Logger) (*filemanager.Manager[any, any], error) {
	if store == nil {
		return nil, errors.New("storage component did not provide a store")
	}
	opts := []filemanager.Option{
		filemanager.WithLogger(log),
		filemanager.WithMetrics(metrics),
	}
	if cache != nil {
		opts = append(opts, filemanager.WithPreviewCache(cache))
	}
	if len(cfg.FileManager.Roles) > 0 {
		opts = append(opts, filemanager.WithActionAllower(
			authz.NewRoleAllower(authz.NewMapChecker(cfg.FileManager.Roles)),
		))
	}
	return filemanager.New[any, any](store, cfg.FileManager, filemanager.Hooks[any, any]{}, opts...)
}

func newServer(cfg *AppConfig, manager *filemanager.Manager[any, any], metrics *observability.Metrics, health endpoint.HealthChecker, log *logger.Logger) (*server.Server, error) {
	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(cfg.Name, metrics)
	if cfg.Auth.Enabled {
		svc, err := jwt.NewService(cfg.Auth.JWT, func() *jwt.Claims { return &jwt.Claims{} })
		if err != nil {
			return nil, err
		}
		srv.Use(middleware.Auth(middleware.AuthConfig{
			Validator: svc,
			SkipPaths: []string{"/health", "/info"},
		}))
	}
	srv.RegisterDefaultEndpoints(cfg.Name, health)
	httpapi.NewHandler(manager, httpapi.WithLogger(log)).Register(srv.GinEngine(), cfg.FileManager.BasePath)
	return srv, nil
}
