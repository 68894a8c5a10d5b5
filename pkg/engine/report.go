package engine

import (
	"time"

	"mediarc-hq/mediarc/pkg/plan"
)

// ActionStats counts outcomes for one action kind within a run.
type ActionStats struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ActionError records one failed action. Failures never abort the run; they
// are collected here for the caller to display.
type ActionError struct {
	Kind    string `json:"kind"`
	RelPath string `json:"path"`
	Err     string `json:"error"`
}

// RunReport summarizes one engine run.
type RunReport struct {
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`
	Ended   time.Time `json:"ended"`

	Mode   string `json:"mode"`
	Order  string `json:"order"`
	DryRun bool   `json:"dry_run"`

	// Stats is keyed by action kind name ("copy", "delete", "fetch",
	// "prune").
	Stats map[string]*ActionStats `json:"stats"`

	// Errors lists every failed action.
	Errors []ActionError `json:"errors,omitempty"`

	// SkippedDirs lists subtrees the scanners could not read; the run was
	// planned from a partial snapshot.
	SkippedDirs []string `json:"skipped_dirs,omitempty"`

	BytesCopied  int64 `json:"bytes_copied"`
	BytesFreed   int64 `json:"bytes_freed"`
	BytesFetched int64 `json:"bytes_fetched"`
	BytesPruned  int64 `json:"bytes_pruned"`

	SourceSizeBefore int64 `json:"source_size_before"`
	SourceSizeAfter  int64 `json:"source_size_after"`

	// SizeLimit echoes the configured budget; 0 means unbounded.
	SizeLimit int64 `json:"size_limit"`

	// BudgetMet is false only when deletion candidates were exhausted and
	// the source still exceeds the budget (too much protected data).
	BudgetMet bool  `json:"budget_met"`
	Shortfall int64 `json:"shortfall,omitempty"`

	// Actions is the full ordered plan, populated in dry-run mode so the
	// caller can audit exactly what a real run would do.
	Actions []plan.Action `json:"actions,omitempty"`
}

// FailedTotal returns the number of failed actions across all kinds.
func (r *RunReport) FailedTotal() int {
	n := 0
	for _, s := range r.Stats {
		n += s.Failed
	}
	return n
}

func (r *RunReport) stats(kind plan.ActionKind) *ActionStats {
	name := kind.String()
	s, ok := r.Stats[name]
	if !ok {
		s = &ActionStats{}
		r.Stats[name] = s
	}
	return s
}
