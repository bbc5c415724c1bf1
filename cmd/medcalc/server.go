package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/medcalc/medcalc/internal/config"
	"github.com/medcalc/medcalc/internal/domain/algorithm"
	"github.com/medcalc/medcalc/internal/domain/calculator"
	"github.com/medcalc/medcalc/internal/domain/parameter"
	"github.com/medcalc/medcalc/internal/platform/auth"
	"github.com/medcalc/medcalc/internal/platform/db"
	"github.com/medcalc/medcalc/internal/platform/middleware"
	"github.com/medcalc/medcalc/internal/platform/telemetry"
	"github.com/medcalc/medcalc/internal/platform/validation"
)

const (
	version         = "0.1.0"
	janitorInterval = 5 * time.Minute
	poolStatsEvery  = 15 * time.Second
)

// backend is the opened parameter store plus whatever it holds open.
type backend struct {
	store parameter.Store
	pool  *pgxpool.Pool
	redis *redis.Client
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		store := parameter.NewRedisStore(client, "medcalc", cfg.SessionTTL)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return &backend{store: store, redis: client}, nil
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &backend{store: parameter.NewPGStore(pool, cfg.SessionTTL), pool: pool}, nil
	default:
		return &backend{store: parameter.NewMemoryStore(cfg.SessionTTL)}, nil
	}
}

// app is everything a running server needs, built once and shared by the
// HTTP routes and the background workers.
type app struct {
	echo    *echo.Echo
	params  *parameter.Service
	metrics *telemetry.Provider
}

func newApp(cfg *config.Config, logger zerolog.Logger, be *backend) *app {
	metrics := telemetry.NewProvider("medcalc")

	paramSvc := parameter.NewService(be.store, logger)
	calcSvc := calculator.NewService(calculator.DefaultRegistry(), logger).
		WithObserver(metrics).
		WithParameterCache(paramSvc)
	algoSvc := algorithm.NewService(algorithm.DefaultRegistry(), logger).
		WithObserver(metrics).
		WithParameterCache(paramSvc)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(metrics.MetricsMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, parameter.SessionHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, parameter.SessionHeader},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		logger.Warn().Msg("development auth is active: every request is treated as admin")
		e.Use(auth.DevAuthMiddleware(auth.AuthSkipper))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}
	e.Use(middleware.Audit(logger))

	e.GET("/health", healthHandler(cfg, be))
	if be.pool != nil {
		e.GET("/health/db", db.HealthHandler(be.pool))
	}
	e.GET("/metrics", metrics.PrometheusHandler())

	rateCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateCfg), middleware.BodyLimit(cfg.BodyLimit))

	calculator.NewHandler(calcSvc).RegisterRoutes(apiV1)
	algorithm.NewHandler(algoSvc).RegisterRoutes(apiV1)
	parameter.NewHandler(paramSvc).RegisterRoutes(apiV1)

	return &app{echo: e, params: paramSvc, metrics: metrics}
}

func healthHandler(cfg *config.Config, be *backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := map[string]string{
			"status":  "ok",
			"version": version,
			"store":   cfg.StoreBackend,
		}
		if be.redis != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := be.redis.Ping(ctx).Err(); err != nil {
				body["status"] = "degraded"
				body["error"] = err.Error()
				return c.JSON(http.StatusServiceUnavailable, body)
			}
		}
		return c.JSON(http.StatusOK, body)
	}
}

// runServer serves HTTP and runs the parameter janitor until SIGINT or
// SIGTERM, then shuts both down.
func runServer(parent context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s parameter store: %w", cfg.StoreBackend, err)
	}
	defer be.Close()
	logger.Info().Str("store", cfg.StoreBackend).Msg("parameter store ready")

	a := newApp(cfg, logger, be)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.params.RunJanitor(ctx, janitorInterval)
	})
	if be.pool != nil {
		g.Go(func() error {
			return reportPoolStats(ctx, be.pool, a.metrics)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.echo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool, m *telemetry.Provider) error {
	ticker := time.NewTicker(poolStatsEvery)
	defer ticker.Stop()
	for {
		stats := db.StatsOf(pool)
		m.SetDBPool(stats.AcquiredConns, stats.IdleConns)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
