package constants

import "time"

const (
	PlayerRefreshTTL = 5 * time.Minute
)

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
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Game-rule thresholds used by the analytics queries.
const (
	FullDeckSize = 8

	// specialWins: the match must have been decided quickly and the
	// opponent must have taken at least two towers.
	SpecialWinMaxDurationSec = 120
	SpecialWinMinOppTowers   = 2
)

const (
	RecentBattleLimit = 5
)
