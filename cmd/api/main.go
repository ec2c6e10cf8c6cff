package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tata/car-sales/internal/bootstrap"
	"github.com/tata/car-sales/internal/pkg/config"
	"github.com/tata/car-sales/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// used until the configured logger exists
	errLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errLog.Error().Err(err).Msg("failed to read .env")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		errLog.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "car-sales",
	})

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer app.Close(context.WithoutCancel(ctx))

	// Seeding runs exactly once, before the listener accepts traffic.
	if err := app.Seed(ctx); err != nil {
		log.Error().Err(err).Msg("seeding default accounts failed")
		return 1
	}

	if err := app.Serve(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return 1
	}
	return 0
}
