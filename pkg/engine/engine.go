package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mediarc-hq/mediarc/pkg/fsops"
	"mediarc-hq/mediarc/pkg/inventory"
	"mediarc-hq/mediarc/pkg/plan"
	"mediarc-hq/mediarc/pkg/policy"
)

// TagName is the marker file that identifies a mediarc archive folder. It
// is excluded from all inventories.
const TagName = ".mediarc"

// ErrSourceNotMediaFolder is returned when the source path does not look
// like a media folder (no Media/ or Databases/ subdirectory), or is itself
// a mediarc archive. It guards against swapped -w/-a arguments trimming the
// wrong tree.
var ErrSourceNotMediaFolder = errors.New("source folder does not look like a media folder")

// Config is the full input to one run.
type Config struct {
	// SourceRoot is the size-constrained folder being backed up.
	SourceRoot string

	// ArchiveRoot is the durable destination tree.
	ArchiveRoot string

	// Mode selects backup, trim, or sync.
	Mode plan.Mode

	// Order selects the weight policy for trimming and rebalancing.
	Order policy.Order

	// SizeLimit is the source budget in bytes; 0 means unbounded.
	SizeLimit int64

	// KeepNewerThan protects files younger than this from deletion.
	KeepNewerThan time.Duration

	// NumKeptDBs protects the N newest database files in the source and
	// bounds dated database backups kept in the archive.
	NumKeptDBs int

	// DryRun plans and reports without touching the filesystem.
	DryRun bool

	// SkipSourceCheck disables the media-folder layout check, for source
	// trees that do not follow the WhatsApp convention.
	SkipSourceCheck bool

	// Classifier overrides kind resolution. Nil uses the WhatsApp layout.
	Classifier inventory.Classifier

	// FS overrides the filesystem capability, for tests. Nil selects the
	// real filesystem, or the no-op one under DryRun.
	FS fsops.FS

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Run performs one full pass: scan, classify, weigh, plan, execute, report.
//
// Only setup failures and unreadable tree roots return an error; everything
// that goes wrong after planning starts is aggregated into the RunReport.
func Run(ctx context.Context, cfg Config) (*RunReport, error) {
	logger := slog.Default().With("component", "engine")
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	if !cfg.SkipSourceCheck {
		if err := checkSourceLayout(cfg.SourceRoot); err != nil {
			return nil, err
		}
	}
	if err := fsops.EnsureArchiveRoot(cfg.ArchiveRoot, TagName, cfg.DryRun); err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:     uuid.New().String(),
		Started:   now(),
		Mode:      string(cfg.Mode),
		Order:     string(cfg.Order),
		DryRun:    cfg.DryRun,
		SizeLimit: cfg.SizeLimit,
		Stats:     make(map[string]*ActionStats),
	}

	source, archive, err := scanBoth(cfg)
	if err != nil {
		return nil, err
	}
	for _, skip := range source.Skipped {
		report.SkippedDirs = append(report.SkippedDirs, skip.RelPath)
	}
	for _, skip := range archive.Skipped {
		report.SkippedDirs = append(report.SkippedDirs, skip.RelPath)
	}

	// Classify and weigh against one consistent instant.
	planNow := now()
	inventory.CrossReference(source, archive)
	policy.Protect(source, policy.ProtectConfig{
		KeepNewerThan: cfg.KeepNewerThan,
		NumKeptDBs:    cfg.NumKeptDBs,
	}, planNow)
	policy.Assign(source, cfg.Order, planNow)
	policy.Assign(archive, cfg.Order, planNow)

	p := plan.Build(source, archive, plan.Config{
		Mode:       cfg.Mode,
		SizeLimit:  cfg.SizeLimit,
		NumKeptDBs: cfg.NumKeptDBs,
	})

	logger.Info("plan built",
		"copies", p.Count(plan.ActionCopy),
		"deletes", p.Count(plan.ActionDelete),
		"fetches", p.Count(plan.ActionFetch),
		"prunes", p.Count(plan.ActionPrune),
		"source_size", p.SourceSize,
		"projected_size", p.ProjectedSize,
		"budget_met", p.BudgetMet,
	)
	if !p.BudgetMet {
		logger.Warn("size budget unreachable: too much protected data",
			"limit", p.SizeLimit,
			"shortfall", p.Shortfall,
		)
	}

	fs := cfg.FS
	if fs == nil {
		if cfg.DryRun {
			fs = fsops.Null{}
		} else {
			fs = fsops.OS{}
		}
	}
	exec := &executor{
		fs:          fs,
		sourceRoot:  source.Root,
		archiveRoot: archive.Root,
		logger:      slog.Default().With("component", "executor"),
	}
	exec.execute(ctx, p, report)

	report.Ended = now()
	report.SourceSizeBefore = p.SourceSize
	report.SourceSizeAfter = p.SourceSize - report.BytesFreed + report.BytesFetched
	if cfg.DryRun {
		// Dry-run frees nothing; report the projection instead.
		report.SourceSizeAfter = p.ProjectedSize
		report.Actions = p.Actions
	}
	report.BudgetMet = p.BudgetMet
	report.Shortfall = p.Shortfall
	return report, nil
}

// scanBoth snapshots the two trees concurrently. Both snapshots complete
// before planning starts, so the budget arithmetic sees a fixed state.
func scanBoth(cfg Config) (source, archive *inventory.Tree, err error) {
	type result struct {
		tree *inventory.Tree
		err  error
	}
	srcCh := make(chan result, 1)
	go func() {
		t, err := inventory.Scan(cfg.SourceRoot, cfg.Classifier, TagName)
		srcCh <- result{t, err}
	}()
	archive, archiveErr := inventory.Scan(cfg.ArchiveRoot, cfg.Classifier, TagName)
	src := <-srcCh

	if src.err != nil {
		return nil, nil, fmt.Errorf("scanning source: %w", src.err)
	}
	if archiveErr != nil {
		// A brand new archive in dry-run mode has no folder yet.
		if cfg.DryRun && errors.Is(archiveErr, os.ErrNotExist) {
			archive = &inventory.Tree{Root: cfg.ArchiveRoot, Files: map[string]*inventory.FileRecord{}}
		} else {
			return nil, nil, fmt.Errorf("scanning archive: %w", archiveErr)
		}
	}
	return src.tree, archive, nil
}

func checkSourceLayout(root string) error {
	if _, err := os.Stat(filepath.Join(root, TagName)); err == nil {
		return fmt.Errorf("%w: %s is a mediarc archive", ErrSourceNotMediaFolder, root)
	}
	for _, sub := range []string{"Media", "Databases"} {
		if info, err := os.Stat(filepath.Join(root, sub)); err == nil && info.IsDir() {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no Media or Databases subfolder", ErrSourceNotMediaFolder, root)
}
