package plan

import (
	"fmt"
	"time"
)

// ActionKind identifies what an action does to which tree.
type ActionKind int

const (
	// ActionCopy copies a file source -> archive, preserving mtime.
	ActionCopy ActionKind = iota
	// ActionDelete removes a file from the source tree.
	ActionDelete
	// ActionFetch copies a file archive -> source (sync mode only).
	ActionFetch
	// ActionPrune removes an expired rolling database backup from the
	// archive tree.
	ActionPrune
)

// String returns the lowercase name of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionCopy:
		return "copy"
	case ActionDelete:
		return "delete"
	case ActionFetch:
		return "fetch"
	case ActionPrune:
		return "prune"
	default:
		return fmt.Sprintf("actionkind(%d)", int(k))
	}
}

// Action is one step of a plan.
type Action struct {
	Kind    ActionKind `json:"kind"`
	RelPath string     `json:"path"`
	Size    int64      `json:"size"`
	ModTime time.Time  `json:"mod_time"`
	Reason  string     `json:"reason"`
}

// MarshalText lets ActionKind render as its name in JSON output.
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Mode selects how far a run goes beyond backing up.
type Mode string

const (
	// ModeBackup copies new files to the archive and nothing else.
	ModeBackup Mode = "backup"
	// ModeTrim is backup plus deleting source files to meet the size budget.
	ModeTrim Mode = "trim"
	// ModeSync is trim plus restoring archived media to the source folder
	// while the budget allows.
	ModeSync Mode = "sync"
)

// ParseMode converts a CLI/config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBackup, ModeTrim, ModeSync:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want backup, trim, or sync)", s)
}
