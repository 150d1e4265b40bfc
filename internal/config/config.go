// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers an optional YAML file and LUXQ_ env
//   vars on top, env winning.
// - External errors are wrapped with this package's sentinels so callers can
//   errors.Is them.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite database file. Empty runs in-memory.
	DBPath string `koanf:"db_path"`

	// EventQueueSize bounds the in-memory live-event queue.
	EventQueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the event deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// PageSize sets the default page size for queue views and surfaces.
	PageSize int `koanf:"page_size"`

	// MaxPageSize caps GET /queue?size.
	MaxPageSize int `koanf:"max_page_size"`

	// WatchIntervalMS sets how often watch time accrues to present handles.
	WatchIntervalMS int `koanf:"watch_interval_ms"`

	// ResortIntervalMS sets how often watch scores flush to the store.
	ResortIntervalMS int `koanf:"resort_interval_ms"`

	// RefreshTickMS sets how often dirty display surfaces republish.
	RefreshTickMS int `koanf:"refresh_tick_ms"`

	// PublishSpacingMS spaces consecutive surface publishes.
	PublishSpacingMS int `koanf:"publish_spacing_ms"`

	// ReconcileIntervalMS sets how often surface pointers are probed.
	ReconcileIntervalMS int `koanf:"reconcile_interval_ms"`
}

// New creates a Config with the built-in defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DBPath:              "luxqueue.db",
		EventQueueSize:      100_000,
		DedupeSize:          50_000,
		PageSize:            10,
		MaxPageSize:         100,
		WatchIntervalMS:     60_000,
		ResortIntervalMS:    30_000,
		RefreshTickMS:       10_000,
		PublishSpacingMS:    1_000,
		ReconcileIntervalMS: 300_000,
	}
}
