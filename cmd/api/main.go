package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/travel-agency/internal/adapters/postgres"
	redisadapter "github.com/robertarktes/travel-agency/internal/adapters/redis"
	"github.com/robertarktes/travel-agency/internal/config"
	httphandler "github.com/robertarktes/travel-agency/internal/http"
	"github.com/robertarktes/travel-agency/internal/idempotency"
	"github.com/robertarktes/travel-agency/internal/observability"
	"github.com/robertarktes/travel-agency/internal/rateLimit"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupOTel(ctx, cfg, "travel-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger(cfg.LogLevel)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DBMinConns, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := postgres.NewRepository(pool)

	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		logger.Info("schema up to date")
	}

	var (
		idemp httphandler.Idempotent
		rl    httphandler.Limiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable at startup, rate limiting will fail open")
		}
		redisCache := redisadapter.NewCache(redisClient)
		idemp = idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), redisCache, cfg.IdempotencyTTL)
		rl = rateLimit.NewRateLimiter(redisCache)
	}

	handlers := httphandler.NewHandlers(cfg, httphandler.Stores{
		Users:     repo,
		Packages:  repo,
		Bookings:  repo,
		Reviews:   repo,
		Staff:     repo,
		Dashboard: repo,
		Health:    repo,
	}, idemp, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httphandler.SetupRouter(handlers, logger, rl, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("api stopped with error")
		os.Exit(1)
	}
	logger.Info("api exited")
}
