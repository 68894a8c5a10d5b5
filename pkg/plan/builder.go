package plan

import (
	"regexp"
	"sort"
	"strings"

	"mediarc-hq/mediarc/pkg/inventory"
	"mediarc-hq/mediarc/pkg/policy"
)

// Config controls plan building. Weights and protection flags must already
// be assigned on the trees (see the policy package) before Build is called.
type Config struct {
	// Mode selects backup, trim, or sync semantics.
	Mode Mode

	// SizeLimit is the source tree budget in bytes. Zero or negative means
	// unbounded, which reduces every mode to backup-only behavior on the
	// delete/fetch side.
	SizeLimit int64

	// NumKeptDBs bounds how many dated rolling database backups stay in
	// the archive. Zero or negative disables archive pruning.
	NumKeptDBs int
}

// Plan is the ordered action list for one run, plus the budget outcome
// computed from the pre-plan snapshot.
type Plan struct {
	Actions []Action

	// SourceSize is the source tree total before any action runs.
	SourceSize int64

	// ProjectedSize is the source tree total after all Deletes and Fetches.
	ProjectedSize int64

	// SizeLimit echoes the configured budget (0 = unbounded).
	SizeLimit int64

	// BudgetMet is false only when every deletion candidate was exhausted
	// and the projected size still exceeds the limit.
	BudgetMet bool

	// Shortfall is how many bytes over budget the source remains when
	// BudgetMet is false.
	Shortfall int64
}

// Count returns how many actions of the given kind the plan contains.
func (p *Plan) Count(kind ActionKind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Bytes returns the total size of all actions of the given kind.
func (p *Plan) Bytes(kind ActionKind) int64 {
	var total int64
	for _, a := range p.Actions {
		if a.Kind == kind {
			total += a.Size
		}
	}
	return total
}

// Empty reports whether the plan contains no actions.
func (p *Plan) Empty() bool { return len(p.Actions) == 0 }

// dbBackupRe matches dated rolling database backup names such as
// "msgstore-2024-01-31.1.db.crypt15". Undated (current) database files
// never match and are never pruned.
var dbBackupRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Build computes the action plan for one run.
//
// Step 1 (all modes): every source file missing from the archive, or whose
// archive copy is stale by size/mtime, becomes a Copy. Backup completeness
// is independent of the budget.
//
// Step 2 (trim, sync): while the source exceeds SizeLimit, non-protected
// source files become Deletes in descending weight order. The running size
// comes from the pre-plan inventory only; partial execution never changes
// what this run decided. Exhausting candidates while still over budget is
// reported via BudgetMet/Shortfall, not an error.
//
// Step 3 (sync): archived media absent from the source become Fetches in
// ascending weight order (the files least preferred for deletion are the
// most preferred to restore), each admitted only if it fits the remaining
// budget.
//
// Step 4: expired dated database backups in the archive become Prunes,
// keeping the NumKeptDBs newest.
func Build(source, archive *inventory.Tree, cfg Config) *Plan {
	p := &Plan{
		SourceSize: source.TotalSize(),
		SizeLimit:  cfg.SizeLimit,
		BudgetMet:  true,
	}

	// Step 1: copy set.
	for _, rec := range source.Records() {
		switch {
		case !rec.InArchive:
			p.add(ActionCopy, rec, "not in archive")
		case !rec.ArchiveMatches:
			p.add(ActionCopy, rec, "archive copy stale")
		}
	}

	// Running source size, threaded explicitly through steps 2 and 3.
	projected := p.SourceSize

	if cfg.Mode == ModeTrim || cfg.Mode == ModeSync {
		projected = p.buildDeletes(source, cfg, projected)
	}
	if cfg.Mode == ModeSync && p.BudgetMet {
		projected = p.buildFetches(source, archive, cfg, projected)
	}
	p.ProjectedSize = projected

	if cfg.NumKeptDBs > 0 {
		p.buildPrunes(archive, cfg.NumKeptDBs)
	}
	return p
}

func (p *Plan) add(kind ActionKind, rec *inventory.FileRecord, reason string) {
	p.Actions = append(p.Actions, Action{
		Kind:    kind,
		RelPath: rec.RelPath,
		Size:    rec.Size,
		ModTime: rec.ModTime,
		Reason:  reason,
	})
}

// buildDeletes greedily schedules deletions until the projected size meets
// the limit, and returns the new projected size.
func (p *Plan) buildDeletes(source *inventory.Tree, cfg Config, projected int64) int64 {
	if cfg.SizeLimit <= 0 || projected <= cfg.SizeLimit {
		return projected
	}
	var candidates []*inventory.FileRecord
	for _, rec := range source.Files {
		if !rec.Protected {
			candidates = append(candidates, rec)
		}
	}
	policy.SortByDeletionPriority(candidates)

	for _, rec := range candidates {
		if projected <= cfg.SizeLimit {
			break
		}
		p.add(ActionDelete, rec, "size budget")
		projected -= rec.Size
	}
	if projected > cfg.SizeLimit {
		p.BudgetMet = false
		p.Shortfall = projected - cfg.SizeLimit
	}
	return projected
}

// buildFetches restores archived media missing from the source, best first,
// without ever exceeding the limit, and returns the new projected size.
// Paths under subtrees the source scan could not read are never fetch
// candidates: a file there may still exist, and fetching over it would
// clobber a possibly newer version.
func (p *Plan) buildFetches(source, archive *inventory.Tree, cfg Config, projected int64) int64 {
	var candidates []*inventory.FileRecord
	for rel, rec := range archive.Files {
		if rec.Kind != inventory.KindMedia {
			continue
		}
		if _, inSource := source.Files[rel]; inSource {
			continue
		}
		if underSkipped(rel, source.Skipped) {
			continue
		}
		candidates = append(candidates, rec)
	}
	// Inverse of deletion priority: lowest weight first, ties by newer
	// creation date, then relative path ascending.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Weight != candidates[j].Weight {
			return candidates[i].Weight < candidates[j].Weight
		}
		if !candidates[i].Created.Equal(candidates[j].Created) {
			return candidates[i].Created.After(candidates[j].Created)
		}
		return candidates[i].RelPath < candidates[j].RelPath
	})

	for _, rec := range candidates {
		if cfg.SizeLimit > 0 && projected+rec.Size > cfg.SizeLimit {
			continue
		}
		p.add(ActionFetch, rec, "rebalance")
		projected += rec.Size
	}
	return projected
}

// underSkipped reports whether rel lies inside a subtree the scan recorded
// as unreadable, so its absence from the file map proves nothing.
func underSkipped(rel string, skipped []inventory.SkippedDir) bool {
	for _, s := range skipped {
		if rel == s.RelPath || strings.HasPrefix(rel, s.RelPath+"/") {
			return true
		}
	}
	return false
}

// buildPrunes rotates dated database backups in the archive, keeping the
// keep newest by modification time (ties by path, newer names last).
func (p *Plan) buildPrunes(archive *inventory.Tree, keep int) {
	var backups []*inventory.FileRecord
	for _, rec := range archive.Files {
		if rec.Kind == inventory.KindDatabase && dbBackupRe.MatchString(rec.RelPath) {
			backups = append(backups, rec)
		}
	}
	if len(backups) <= keep {
		return
	}
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].ModTime.Before(backups[j].ModTime)
		}
		return backups[i].RelPath < backups[j].RelPath
	})
	for _, rec := range backups[:len(backups)-keep] {
		p.add(ActionPrune, rec, "database backup rotation")
	}
}
