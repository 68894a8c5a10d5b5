package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, and
// validates the result. Environment variables are not consulted; use
// LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// MEDIARC_* environment variable overrides on top, re-validating the final
// result. Environment variables take precedence over the file; command-line
// flags (applied by the caller) take precedence over both.
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration with only defaults applied, for running
// without a config file (all engine inputs supplied by flags).
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// applyEnvOverrides applies environment variable overrides in the format
// MEDIARC_SECTION_FIELD. Malformed values are ignored; validation runs
// again afterwards and reports anything that matters.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("MEDIARC_RUN_SOURCE"); val != "" {
		cfg.Run.Source = val
	}
	if val := os.Getenv("MEDIARC_RUN_ARCHIVE"); val != "" {
		cfg.Run.Archive = val
	}
	if val := os.Getenv("MEDIARC_RUN_MODE"); val != "" {
		cfg.Run.Mode = val
	}
	if val := os.Getenv("MEDIARC_RUN_ORDER"); val != "" {
		cfg.Run.Order = val
	}
	if val := os.Getenv("MEDIARC_RUN_SIZE_LIMIT"); val != "" {
		if v, err := ParseSize(val); err == nil {
			cfg.Run.SizeLimit = v
		}
	}
	if val := os.Getenv("MEDIARC_RUN_KEEP_NEWER_THAN"); val != "" {
		if v, err := ParseDuration(val); err == nil {
			cfg.Run.KeepNewerThan = v
		}
	}
	if val := os.Getenv("MEDIARC_RUN_KEPT_DBS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			cfg.Run.KeptDBs = v
		}
	}
	if val := os.Getenv("MEDIARC_JOURNAL_ENABLED"); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = v
		}
	}
	if val := os.Getenv("MEDIARC_JOURNAL_PATH"); val != "" {
		cfg.Journal.Path = val
	}
	if val := os.Getenv("MEDIARC_SCHEDULE_CRON"); val != "" {
		cfg.Schedule.Cron = val
	}
	if val := os.Getenv("MEDIARC_SCHEDULE_METRICS_LISTEN"); val != "" {
		cfg.Schedule.MetricsListen = val
	}
	if val := os.Getenv("MEDIARC_WATCH_DEBOUNCE"); val != "" {
		if v, err := ParseDuration(val); err == nil {
			cfg.Watch.Debounce = v
		}
	}
	if val := os.Getenv("MEDIARC_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MEDIARC_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}
