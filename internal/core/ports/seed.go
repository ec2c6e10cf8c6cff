package ports

import "context"

// SeedLock serialises seeding across processes sharing the same store.
type SeedLock interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// Seeder populates the default accounts at startup.
type Seeder interface {
	Run(ctx context.Context) error
}
