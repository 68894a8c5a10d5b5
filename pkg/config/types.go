package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size is a byte count that unmarshals from humane YAML values such as
// "512MiB", "1.5GB", or a plain integer.
type Size int64

// UnmarshalYAML implements yaml.Unmarshaler via the string form.
func (s *Size) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := ParseSize(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// String renders the size in IEC units.
func (s Size) String() string {
	return humanize.IBytes(uint64(s))
}

// ParseSize parses a humane byte count ("512MiB", "2GB", "1048576").
func ParseSize(s string) (Size, error) {
	v, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return Size(v), nil
}

// Duration is a time.Duration that additionally accepts day and week
// suffixes ("14d", "2w"), which the standard parser lacks but retention
// settings want.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler via the string form.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// String renders the duration in Go's standard notation.
func (d Duration) String() string { return time.Duration(d).String() }

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

var dayWeekRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(d|w)$`)

// ParseDuration parses a duration, accepting everything time.ParseDuration
// does plus "Nd" (days) and "Nw" (weeks).
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if m := dayWeekRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		unit := 24 * time.Hour
		if m[2] == "w" {
			unit = 7 * 24 * time.Hour
		}
		return Duration(time.Duration(n * float64(unit))), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(v), nil
}
