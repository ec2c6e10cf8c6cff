// Package metrics defines and registers all custom Prometheus metrics for the
// car-sales service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carsales"

// Seed results.
const (
	SeedResultCreated = "created"
	SeedResultSkipped = "skipped"
	SeedResultFailed  = "failed"
)

// ── Seed metrics ──────────────────────────────────────────────────────────────

// SeedAccountsTotal counts default account outcomes at startup.
// Labels:
//   - role: the account role (e.g. "ADMIN")
//   - result: "created", "skipped" (already present) or "failed"
var SeedAccountsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seed_accounts_total",
		Help:      "Total number of default accounts processed by the seeder, by role and result.",
	},
	[]string{"role", "result"},
)

// SeedDuration measures a full seeding run.
// Label:
//   - outcome: "ok" or "error"
var SeedDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "seed_duration_seconds",
		Help:      "Duration of a seeding run, including password hashing.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
