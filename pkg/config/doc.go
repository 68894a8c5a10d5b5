/*
Package config loads, defaults, and validates mediarc configuration.

Configuration comes from a YAML file, optionally overridden by environment
variables with the MEDIARC_ prefix (e.g. MEDIARC_RUN_SIZE_LIMIT), and
finally by explicit command-line flags. Human-friendly value formats are
accepted throughout: sizes like "512MiB" and durations like "14d" or "2w".

Loading order:
 1. read and parse the YAML file
 2. apply defaults
 3. apply MEDIARC_* environment overrides
 4. validate the result, collecting every field error
*/
package config
