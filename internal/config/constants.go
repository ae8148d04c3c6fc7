package config

import "time"

// Link code lifecycle. The refresh floor leaves enough headroom for a
// person to pull out a phone and type the code; refreshing only at
// absolute expiry would let users start entering an almost-expired code
// and fail the link attempt mid-entry.
const (
	LinkCodeLength       = 4
	LinkCodeTTL          = 600 * time.Second
	LinkCodeRefreshFloor = 45 * time.Second
)

// Device authorization lifetime. The credential cookie carries the same
// expiry so both sides age out together.
const (
	TokenLength      = 32
	AuthorizationTTL = 60 * 24 * time.Hour
)

// Current-game pointer: room for a full regulation game plus
// intermissions, overtime and some slack.
const CurrentGameTTL = 4 * time.Hour

// Scores provider cadence.
const (
	ScheduleCacheTTL        = 20 * time.Minute
	ScheduleRefreshInterval = 20 * time.Minute
)

// Link-event history retention (Postgres, optional).
const (
	HistoryRetention     = 90 * 24 * time.Hour
	HistoryPruneInterval = 12 * time.Hour
)

// Claim attempts per client IP per minute. A 4-character code is
// guessable inside its 10-minute window without a ceiling here.
const LinkAttemptsPerMin = 10

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for startup checks
const DBPingTimeout = 5 * time.Second
