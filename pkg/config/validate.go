package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"mediarc-hq/mediarc/pkg/plan"
	"mediarc-hq/mediarc/pkg/policy"
)

// FieldError represents a validation error for a specific configuration
// field, identified by its dotted path (e.g. "run.size_limit").
type FieldError struct {
	Field   string
	Message string
}

// Error returns the message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the entire configuration, collecting all errors rather
// than stopping at the first. Returns nil when the configuration is valid.
//
// Source and archive are not required here: they may arrive later as
// command-line flags. ValidateRun enforces their presence at run time.
func Validate(cfg *Config) error {
	var errs []FieldError

	if _, err := plan.ParseMode(cfg.Run.Mode); err != nil {
		errs = append(errs, FieldError{Field: "run.mode", Message: err.Error()})
	}
	if _, err := policy.ParseOrder(cfg.Run.Order); err != nil {
		errs = append(errs, FieldError{Field: "run.order", Message: err.Error()})
	}
	if cfg.Run.KeptDBs < 0 {
		errs = append(errs, FieldError{Field: "run.kept_dbs", Message: "must not be negative"})
	}
	if cfg.Run.SizeLimit < 0 {
		errs = append(errs, FieldError{Field: "run.size_limit", Message: "must not be negative"})
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		errs = append(errs, FieldError{Field: "journal.path", Message: "required when journal is enabled"})
	}
	if cfg.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			errs = append(errs, FieldError{Field: "schedule.cron", Message: err.Error()})
		}
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{Field: "watch.debounce", Message: "must not be negative"})
	}
	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: "must be debug, info, warn, or error"})
	}
	switch cfg.Telemetry.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: "must be text or json"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// ValidateRun checks the fields that must be present before the engine can
// run: source and archive paths, and that they differ.
func ValidateRun(cfg *Config) error {
	var errs []FieldError
	if cfg.Run.Source == "" {
		errs = append(errs, FieldError{Field: "run.source", Message: "source folder is required"})
	}
	if cfg.Run.Archive == "" {
		errs = append(errs, FieldError{Field: "run.archive", Message: "archive folder is required"})
	}
	if cfg.Run.Source != "" && cfg.Run.Source == cfg.Run.Archive {
		errs = append(errs, FieldError{Field: "run.archive", Message: "archive must differ from source"})
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
