// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file, and PODIUM_* env vars.
// - External errors are wrapped via this package's error kinds.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PostgresDSN is the durable score store connection string. When
	// empty the process runs on the in-memory store (local development).
	PostgresDSN string `koanf:"postgres_dsn"`

	// RunSchemaSync creates the leaderboards table on startup when true.
	RunSchemaSync bool `koanf:"run_schema_sync"`

	// RedisAddr is the shared rank cache address, e.g. "localhost:6379".
	RedisAddr string `koanf:"redis_addr"`

	// PopularityThreshold is the distinct active-player count a game must
	// exceed to be promoted into the shared rank cache.
	PopularityThreshold int `koanf:"popularity_threshold"`

	// MaxInMemoryGames bounds the process-local hot tier.
	MaxInMemoryGames int `koanf:"max_in_memory_games"`

	// PersistIntervalMinutes is the reconciliation cadence.
	PersistIntervalMinutes int `koanf:"persist_interval_minutes"`

	// ReconcileWorkers sets how many per-game flushes run concurrently.
	ReconcileWorkers int `koanf:"reconcile_workers"`

	// DefaultLimit applies when GET /leaderboard omits ?limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps GET /leaderboard?limit.
	MaxLimit int `koanf:"max_limit"`

	// AuthSecret is the shared secret the bearer-token verifier checks
	// against. Empty disables authentication (local development).
	AuthSecret string `koanf:"auth_secret"`

	// CacheTimeoutMS bounds every shared-cache and classifier call.
	CacheTimeoutMS int `koanf:"cache_timeout_ms"`

	// StoreTimeoutMS bounds every durable store call on the request path.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// FlushTimeoutMS bounds a single per-game reconciliation batch.
	FlushTimeoutMS int `koanf:"flush_timeout_ms"`
}

// New returns a Config populated with defaults. The popularity threshold
// and persistence cadence mirror the service's deployment defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		PostgresDSN:            "",
		RunSchemaSync:          false,
		RedisAddr:              "localhost:6379",
		PopularityThreshold:    1000,
		MaxInMemoryGames:       1000,
		PersistIntervalMinutes: 60,
		ReconcileWorkers:       runtime.NumCPU(),
		DefaultLimit:           10,
		MaxLimit:               100,
		AuthSecret:             "",
		CacheTimeoutMS:         250,
		StoreTimeoutMS:         2000,
		FlushTimeoutMS:         30000,
	}
}
