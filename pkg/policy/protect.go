package policy

import (
	"path"
	"sort"
	"time"

	"mediarc-hq/mediarc/pkg/inventory"
)

// ProtectConfig controls which files are exempt from deletion.
type ProtectConfig struct {
	// KeepNewerThan protects files whose age is below this duration.
	// Zero disables age protection.
	KeepNewerThan time.Duration

	// NumKeptDBs protects the N most recently modified database files.
	NumKeptDBs int
}

// Protect marks protected records in the tree. It is a pure transformation
// of the snapshot: given the same tree, config, and instant, it always
// protects the same set.
//
// Three rules apply, in order:
//  1. any file with age below KeepNewerThan is protected;
//  2. ".nomedia" marker files are always protected;
//  3. the NumKeptDBs most recently modified database files are protected,
//     ties broken by relative path ascending.
//
// Rule 3 holds regardless of the size budget; it may cause the budget to be
// unreachable, which the planner reports rather than violating retention.
func Protect(tree *inventory.Tree, cfg ProtectConfig, now time.Time) {
	var dbs []*inventory.FileRecord
	for _, rec := range tree.Files {
		rec.Protected = false
		if cfg.KeepNewerThan > 0 && rec.AgeAt(now) < cfg.KeepNewerThan {
			rec.Protected = true
		}
		// Marker files suppressing gallery indexing are tiny and load
		// bearing; deleting one floods the gallery with media thumbnails.
		if path.Base(rec.RelPath) == ".nomedia" {
			rec.Protected = true
		}
		if rec.Kind == inventory.KindDatabase {
			dbs = append(dbs, rec)
		}
	}
	if cfg.NumKeptDBs <= 0 {
		return
	}
	sort.Slice(dbs, func(i, j int) bool {
		if !dbs[i].ModTime.Equal(dbs[j].ModTime) {
			return dbs[i].ModTime.After(dbs[j].ModTime)
		}
		return dbs[i].RelPath < dbs[j].RelPath
	})
	for i, rec := range dbs {
		if i >= cfg.NumKeptDBs {
			break
		}
		rec.Protected = true
	}
}
