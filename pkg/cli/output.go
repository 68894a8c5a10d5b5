package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"mediarc-hq/mediarc/pkg/engine"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
)

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data interface{}) error
}

// NewFormatter creates a formatter for the specified format. Unknown
// formats fall back to text.
func NewFormatter(format OutputFormat) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{Indent: true}
	}
	return &TextFormatter{}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// TextFormatter renders run reports and history listings for humans. Other
// values fall back to fmt formatting.
type TextFormatter struct{}

// FormatTo writes data to w as text.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *engine.RunReport:
		return writeReport(w, v)
	case []*engine.RunReport:
		return writeHistory(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

func writeReport(w io.Writer, r *engine.RunReport) error {
	if r.DryRun {
		fmt.Fprintf(w, "Dry run: no files were changed.\n")
		for _, a := range r.Actions {
			fmt.Fprintf(w, "  %-6s %-60s %10s  (%s)\n",
				a.Kind.String(), a.RelPath, humanize.IBytes(uint64(a.Size)), a.Reason)
		}
	}

	fmt.Fprintf(w, "Run %s (%s, order %s) finished in %s\n",
		r.RunID, r.Mode, r.Order, r.Ended.Sub(r.Started).Round(humanizeRound))
	for _, kind := range statKinds(r) {
		s := r.Stats[kind]
		fmt.Fprintf(w, "  %-7s succeeded %d, failed %d, skipped %d\n",
			kind+":", s.Succeeded, s.Failed, s.Skipped)
	}
	fmt.Fprintf(w, "  copied %s, freed %s", humanize.IBytes(uint64(r.BytesCopied)), humanize.IBytes(uint64(r.BytesFreed)))
	if r.BytesFetched > 0 {
		fmt.Fprintf(w, ", fetched %s", humanize.IBytes(uint64(r.BytesFetched)))
	}
	if r.BytesPruned > 0 {
		fmt.Fprintf(w, ", pruned %s", humanize.IBytes(uint64(r.BytesPruned)))
	}
	fmt.Fprintf(w, "\n  source folder size: %s", humanize.IBytes(uint64(r.SourceSizeAfter)))
	if r.SizeLimit > 0 {
		fmt.Fprintf(w, " (limit %s)", humanize.IBytes(uint64(r.SizeLimit)))
	}
	fmt.Fprintln(w)

	if !r.BudgetMet {
		fmt.Fprintf(w, "  WARNING: size budget unreachable, %s over limit (too much protected data)\n",
			humanize.IBytes(uint64(r.Shortfall)))
	}
	for _, dir := range r.SkippedDirs {
		fmt.Fprintf(w, "  warning: skipped unreadable subtree %s\n", dir)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %s %s: %s\n", e.Kind, e.RelPath, e.Err)
	}
	return nil
}

func writeHistory(w io.Writer, reports []*engine.RunReport) error {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	fmt.Fprintf(w, "%-20s %-7s %-14s %8s %10s %10s %7s\n",
		"STARTED", "MODE", "ORDER", "FAILED", "COPIED", "FREED", "BUDGET")
	for _, r := range reports {
		budget := "met"
		if !r.BudgetMet {
			budget = "OVER"
		}
		if r.SizeLimit <= 0 {
			budget = "-"
		}
		fmt.Fprintf(w, "%-20s %-7s %-14s %8d %10s %10s %7s\n",
			r.Started.Format("2006-01-02 15:04:05"),
			r.Mode,
			r.Order,
			r.FailedTotal(),
			humanize.IBytes(uint64(r.BytesCopied)),
			humanize.IBytes(uint64(r.BytesFreed)),
			budget,
		)
	}
	return nil
}

func statKinds(r *engine.RunReport) []string {
	kinds := make([]string, 0, len(r.Stats))
	for kind := range r.Stats {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

const humanizeRound = 1e6 // report durations at millisecond precision
