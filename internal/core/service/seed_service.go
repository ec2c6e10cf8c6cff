package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tata/car-sales/internal/api/metrics"
	"github.com/tata/car-sales/internal/core/domain"
	"github.com/tata/car-sales/internal/core/ports"
)

// SeedMode controls how the seeder treats accounts that already exist.
type SeedMode string

const (
	// ModeCreate inserts every default account unconditionally. Running it a
	// second time against a store with unique usernames fails with
	// domain.ErrUserExists.
	ModeCreate SeedMode = "create"
	// ModeCreateIfAbsent skips accounts whose username is already stored.
	ModeCreateIfAbsent SeedMode = "create_if_absent"
)

// ParseSeedMode maps a configuration value to a SeedMode.
func ParseSeedMode(s string) (SeedMode, error) {
	switch SeedMode(s) {
	case "", ModeCreate:
		return ModeCreate, nil
	case ModeCreateIfAbsent:
		return ModeCreateIfAbsent, nil
	}
	return "", fmt.Errorf("unknown seed mode %q", s)
}

// SeedAccount is one default account created at startup.
type SeedAccount struct {
	Username string
	Password string
	Role     domain.Role
}

// DefaultAccounts returns the fixed accounts in creation order.
func DefaultAccounts() []SeedAccount {
	return []SeedAccount{
		{Username: "admin", Password: "admin123", Role: domain.RoleAdmin},
		{Username: "user", Password: "user123", Role: domain.RoleUser},
	}
}

// Seeder creates the default accounts once per process start.
type Seeder struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	log      zerolog.Logger
	mode     SeedMode
	lock     ports.SeedLock
	accounts []SeedAccount
	now      func() time.Time
}

// SeederOption customises a Seeder.
type SeederOption func(*Seeder)

// WithMode sets the seed mode. The default is ModeCreate.
func WithMode(mode SeedMode) SeederOption {
	return func(s *Seeder) { s.mode = mode }
}

// WithLock makes Run hold lock for the duration of seeding.
func WithLock(lock ports.SeedLock) SeederOption {
	return func(s *Seeder) { s.lock = lock }
}

// WithAccounts replaces the default account list.
func WithAccounts(accounts []SeedAccount) SeederOption {
	return func(s *Seeder) { s.accounts = accounts }
}

func NewSeeder(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger, opts ...SeederOption) *Seeder {
	s := &Seeder{
		repo:     repo,
		hasher:   hasher,
		log:      log,
		mode:     ModeCreate,
		accounts: DefaultAccounts(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run seeds the accounts in order. The first hashing or persistence error is
// returned and the remaining accounts are not attempted.
func (s *Seeder) Run(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.SeedDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if s.lock != nil {
		release, lerr := s.lock.Acquire(ctx)
		if lerr != nil {
			return lerr
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				s.log.Warn().Err(rerr).Msg("seed lock release failed")
			}
		}()
	}

	for _, acc := range s.accounts {
		if err := s.seedOne(ctx, acc); err != nil {
			metrics.SeedAccountsTotal.WithLabelValues(string(acc.Role), metrics.SeedResultFailed).Inc()
			s.log.Error().Err(err).
				Str("username", acc.Username).
				Str("role", string(acc.Role)).
				Msg("seeding aborted")
			return fmt.Errorf("seed %q: %w", acc.Username, err)
		}
	}

	s.log.Info().Int("accounts", len(s.accounts)).Str("mode", string(s.mode)).Msg("default accounts seeded")
	return nil
}

func (s *Seeder) seedOne(ctx context.Context, acc SeedAccount) error {
	if s.mode == ModeCreateIfAbsent {
		_, err := s.repo.FindByUsername(ctx, acc.Username)
		switch {
		case err == nil:
			metrics.SeedAccountsTotal.WithLabelValues(string(acc.Role), metrics.SeedResultSkipped).Inc()
			s.log.Debug().Str("username", acc.Username).Msg("account already present, skipping")
			return nil
		case !errors.Is(err, domain.ErrUserNotFound):
			return err
		}
	}

	hash, err := s.hasher.Hash(acc.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Username:     acc.Username,
		PasswordHash: hash,
		Role:         acc.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return err
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return err
	}

	metrics.SeedAccountsTotal.WithLabelValues(string(acc.Role), metrics.SeedResultCreated).Inc()
	s.log.Info().
		Str("user_id", created.ID).
		Str("username", created.Username).
		Str("role", string(created.Role)).
		Msg("account created")
	return nil
}
