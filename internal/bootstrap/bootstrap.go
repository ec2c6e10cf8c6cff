// Package bootstrap wires the service together in a fixed order: open the
// account store, seed the default accounts once, then serve.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tata/car-sales/internal/api"
	"github.com/tata/car-sales/internal/api/handler"
	"github.com/tata/car-sales/internal/core/ports"
	"github.com/tata/car-sales/internal/core/service"
	"github.com/tata/car-sales/internal/infrastructure/crypto"
	"github.com/tata/car-sales/internal/infrastructure/db/memory"
	"github.com/tata/car-sales/internal/infrastructure/db/mongo"
	"github.com/tata/car-sales/internal/infrastructure/db/postgres"
	"github.com/tata/car-sales/internal/infrastructure/db/redis"
	"github.com/tata/car-sales/internal/pkg/config"
)

const (
	serviceName     = "car-sales"
	shutdownTimeout = 15 * time.Second
)

type closer func(context.Context) error

// App holds the long-lived dependencies built at startup.
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	repo    ports.UserRepository
	redis   *goredis.Client
	seeder  ports.Seeder
	seeded  atomic.Bool
	router  *echo.Echo
	closers []closer
}

var errSeedPending = errors.New("default accounts not seeded yet")

// New opens the account store and builds the seeder. Nothing is written yet.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	repo, err := a.openStore(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.repo = repo

	hasher, err := crypto.NewHasher(cfg.Seed.HashAlgorithm, cfg.Seed.BcryptCost)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	mode, err := service.ParseSeedMode(cfg.Seed.Mode)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	opts := []service.SeederOption{service.WithMode(mode)}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.redis = rdb
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		opts = append(opts, service.WithLock(redis.NewSeedLock(rdb, "accounts", 0)))
	}

	a.seeder = service.NewSeeder(repo, hasher, log.With().Str("component", "seeder").Logger(), opts...)
	a.router = api.NewRouter(log, a.readinessChecks(), prometheus.NewRegistry())
	return a, nil
}

func (a *App) openStore(ctx context.Context) (ports.UserRepository, error) {
	switch a.cfg.StoreDriver {
	case config.StoreMongo:
		db, disconnect, err := mongo.Connect(ctx, mongo.Config{
			URI:      a.cfg.Mongo.URI,
			Database: a.cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, disconnect)
		repo := mongo.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      a.cfg.Postgres.DSN,
			MaxConns: a.cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		repo := postgres.NewUserRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	case config.StoreMemory:
		a.log.Warn().Msg("using in-memory account store; accounts are lost on restart")
		return memory.NewUserRepository(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
}

// Seed runs the seeder once when enabled. Its error must abort startup.
func (a *App) Seed(ctx context.Context) error {
	if !a.cfg.Seed.Enabled {
		a.log.Info().Msg("seeding disabled")
		a.seeded.Store(true)
		return nil
	}
	if err := a.seeder.Run(ctx); err != nil {
		return err
	}
	a.seeded.Store(true)
	return nil
}

// Router returns the HTTP surface built in New.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) readinessChecks() map[string]handler.Check {
	checks := map[string]handler.Check{
		"store": a.repo.Ping,
		"seed": func(context.Context) error {
			if !a.seeded.Load() {
				return errSeedPending
			}
			return nil
		},
	}
	if a.redis != nil {
		rdb := a.redis
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server crashed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown failed")
		_ = srv.Close()
		return err
	}
	a.log.Info().Msg("shutdown complete")
	return nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}
