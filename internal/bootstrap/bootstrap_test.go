package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/tata/car-sales/internal/core/domain"
	"github.com/tata/car-sales/internal/infrastructure/db/memory"
	"github.com/tata/car-sales/internal/pkg/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		StoreDriver: config.StoreMemory,
		Seed: config.SeedConfig{
			Enabled:       true,
			Mode:          "create",
			HashAlgorithm: "bcrypt",
			BcryptCost:    4,
		},
	}
}

func TestApp_SeedOnceThenFailsOnRerun(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, memoryConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close(ctx)

	if err := app.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	users, _ := app.repo.(*memory.UserRepository).List(ctx)
	if len(users) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(users))
	}

	if err := app.Seed(ctx); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists on rerun, got %v", err)
	}
}

func TestApp_SeedDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.Seed.Enabled = false

	app, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := app.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	users, _ := app.repo.(*memory.UserRepository).List(ctx)
	if len(users) != 0 {
		t.Fatalf("expected no accounts when seeding is disabled, got %d", len(users))
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	ctx := context.Background()

	cfg := memoryConfig()
	cfg.Seed.HashAlgorithm = "md5"
	if _, err := New(ctx, cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown hash algorithm")
	}

	cfg = memoryConfig()
	cfg.StoreDriver = "sqlite"
	if _, err := New(ctx, cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown store driver")
	}
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app, err := New(ctx, memoryConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}
}

type readiness struct {
	Status       string `json:"status"`
	Dependencies map[string]struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"dependencies"`
}

func getReadiness(t *testing.T, h http.Handler) (int, readiness) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp readiness
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func TestApp_ReadinessWaitsForSeed(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, memoryConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code, resp := getReadiness(t, app.Router())
	if code != http.StatusServiceUnavailable || resp.Dependencies["seed"].Status != "unhealthy" {
		t.Fatalf("expected not ready before seeding, got %d %+v", code, resp)
	}

	if err := app.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	code, resp = getReadiness(t, app.Router())
	if code != http.StatusOK || resp.Dependencies["seed"].Status != "ok" || resp.Dependencies["store"].Status != "ok" {
		t.Fatalf("expected ready after seeding, got %d %+v", code, resp)
	}
	if _, ok := resp.Dependencies["redis"]; ok {
		t.Fatalf("redis check must not be registered without REDIS_ADDR")
	}
}

func TestApp_WithRedis_LockAndReadiness(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.Redis.Addr = mr.Addr()

	app, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close(ctx)

	// another replica holds the lock
	if err := mr.Set("seed:lock:accounts", "other"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := app.Seed(ctx); !errors.Is(err, domain.ErrSeedInProgress) {
		t.Fatalf("expected ErrSeedInProgress while lock is held, got %v", err)
	}
	users, _ := app.repo.(*memory.UserRepository).List(ctx)
	if len(users) != 0 {
		t.Fatalf("expected no accounts while lock is held, got %d", len(users))
	}

	mr.Del("seed:lock:accounts")
	if err := app.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if mr.Exists("seed:lock:accounts") {
		t.Fatalf("expected lock to be released after seeding")
	}

	code, resp := getReadiness(t, app.Router())
	if code != http.StatusOK || resp.Dependencies["redis"].Status != "ok" {
		t.Fatalf("expected redis ok, got %d %+v", code, resp)
	}

	mr.Close()
	code, resp = getReadiness(t, app.Router())
	if code != http.StatusServiceUnavailable || resp.Dependencies["redis"].Status != "unhealthy" {
		t.Fatalf("expected redis unhealthy after shutdown, got %d %+v", code, resp)
	}
}

func TestApp_RouterReusable(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		app, err := New(ctx, memoryConfig(), zerolog.Nop())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for j := 0; j < 2; j++ {
			rec := httptest.NewRecorder()
			app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		}
	}
}
