package config

// Config is the root configuration structure for mediarc. It contains the
// run parameters for the reconciliation engine plus the surrounding
// operational settings: run journal, scheduled/daemon operation, and
// telemetry.
type Config struct {
	// Run contains the engine parameters for one reconciliation pass.
	Run RunConfig `yaml:"run"`

	// Journal contains the optional SQLite run-history journal settings.
	Journal JournalConfig `yaml:"journal"`

	// Schedule contains settings for cron-scheduled daemon operation.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Watch contains settings for filesystem-triggered daemon operation.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RunConfig parametrizes the selection and sync engine.
type RunConfig struct {
	// Source is the size-constrained media folder (e.g. the WhatsApp
	// folder on a phone mount).
	Source string `yaml:"source"`

	// Archive is the durable destination folder.
	Archive string `yaml:"archive"`

	// Mode is one of "backup", "trim", "sync".
	// Default: "backup"
	Mode string `yaml:"mode"`

	// Order is the trim/rebalance weight policy: "newer", "smaller", or
	// "smaller_newer".
	// Default: "smaller_newer"
	Order string `yaml:"order"`

	// SizeLimit caps the source folder size ("512MiB"). Zero/absent means
	// unbounded.
	SizeLimit Size `yaml:"size_limit"`

	// KeepNewerThan protects files younger than this from deletion
	// ("14d", "2w"). Zero disables age protection.
	KeepNewerThan Duration `yaml:"keep_newer_than"`

	// KeptDBs is how many message database backups to retain.
	// Default: 10
	KeptDBs int `yaml:"kept_dbs"`

	// DryRun reports the plan without touching the filesystem.
	DryRun bool `yaml:"dry_run"`

	// SkipSourceCheck disables the media-folder layout sanity check.
	SkipSourceCheck bool `yaml:"skip_source_check"`
}

// JournalConfig controls the run-history journal. The journal is written
// after each run and never consulted by the engine.
type JournalConfig struct {
	// Enabled turns the journal on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path.
	// Default: "mediarc-history.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout Duration `yaml:"busy_timeout"`
}

// ScheduleConfig controls cron-scheduled operation ("mediarc run --schedule").
type ScheduleConfig struct {
	// Cron is a standard 5-field cron expression, e.g. "0 3 * * *".
	Cron string `yaml:"cron"`

	// MetricsListen is an optional address to serve Prometheus metrics on
	// while the scheduler runs, e.g. "127.0.0.1:9464".
	MetricsListen string `yaml:"metrics_listen"`
}

// WatchConfig controls filesystem-triggered operation ("mediarc watch").
type WatchConfig struct {
	// Debounce is how long the source tree must stay quiet before a run
	// triggers, preventing run storms during bursts of incoming media.
	// Default: 30s
	Debounce Duration `yaml:"debounce"`

	// MetricsListen is an optional Prometheus listen address.
	MetricsListen string `yaml:"metrics_listen"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the slog setup.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`
}
