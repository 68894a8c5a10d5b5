package config

import "time"

// Default values for configuration fields.
const (
	DefaultMode  = "backup"
	DefaultOrder = "smaller_newer"

	DefaultKeptDBs = 10

	DefaultJournalPath        = "mediarc-history.db"
	DefaultJournalBusyTimeout = 5 * time.Second

	DefaultWatchDebounce = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ApplyDefaults fills unset fields with their default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Run.Mode == "" {
		cfg.Run.Mode = DefaultMode
	}
	if cfg.Run.Order == "" {
		cfg.Run.Order = DefaultOrder
	}
	if cfg.Run.KeptDBs == 0 {
		cfg.Run.KeptDBs = DefaultKeptDBs
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Journal.BusyTimeout == 0 {
		cfg.Journal.BusyTimeout = Duration(DefaultJournalBusyTimeout)
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(DefaultWatchDebounce)
	}
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
}
