package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// RefreshWorkers bounds the fan-out of the leaderboard refresher.
	// Each unit of work touches a disjoint row, so the cap exists only
	// to stay under the upstream rate limit.
	RefreshWorkers = 8

	// LookupAttempts caps supplementary single-player lookups during
	// clan reconciliation.
	LookupAttempts = 2
)

const (
	DefaultSessionTTL = 12 * time.Hour

	// EODHistoryLimit is how many snapshots the EOD leaderboard reads:
	// the latest for standings, the one before for trophy deltas.
	EODHistoryLimit = 2
)
