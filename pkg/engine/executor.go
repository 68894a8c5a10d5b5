package engine

import (
	"context"
	"log/slog"
	"path/filepath"

	"mediarc-hq/mediarc/pkg/fsops"
	"mediarc-hq/mediarc/pkg/plan"
)

// executor applies a plan's actions in order against the filesystem
// capability. It never reorders actions: the plan's Copy-before-Delete
// ordering is the data-safety guarantee and must survive execution.
type executor struct {
	fs          fsops.FS
	sourceRoot  string
	archiveRoot string
	logger      *slog.Logger
}

// execute runs every action, recording per-action outcomes on the report.
// A failed action is logged and recorded, then execution continues; one bad
// file must not abort a whole backup run. Cancellation is honored at action
// boundaries only, so a partially executed plan still leaves both trees
// valid.
func (e *executor) execute(ctx context.Context, p *plan.Plan, report *RunReport) {
	failedCopies := make(map[string]bool)
	for i, action := range p.Actions {
		if ctx.Err() != nil {
			e.logger.Warn("run cancelled, skipping remaining actions",
				"completed", i,
				"skipped", len(p.Actions)-i,
			)
			for _, rest := range p.Actions[i:] {
				report.stats(rest.Kind).Skipped++
			}
			return
		}

		// A Copy planned for this path means the archive has no current
		// version of it. If that Copy failed, deleting the source file
		// now would destroy its only copy.
		if action.Kind == plan.ActionDelete && failedCopies[action.RelPath] {
			report.stats(action.Kind).Skipped++
			e.logger.Warn("skipping delete, archive copy failed this run",
				"path", action.RelPath,
			)
			continue
		}

		err := e.apply(ctx, action)
		stats := report.stats(action.Kind)
		if err != nil {
			if action.Kind == plan.ActionCopy {
				failedCopies[action.RelPath] = true
			}
			stats.Failed++
			report.Errors = append(report.Errors, ActionError{
				Kind:    action.Kind.String(),
				RelPath: action.RelPath,
				Err:     err.Error(),
			})
			e.logger.Error("action failed",
				"action", action.Kind.String(),
				"path", action.RelPath,
				"error", err,
			)
			continue
		}
		stats.Succeeded++
		switch action.Kind {
		case plan.ActionCopy:
			report.BytesCopied += action.Size
		case plan.ActionDelete:
			report.BytesFreed += action.Size
		case plan.ActionFetch:
			report.BytesFetched += action.Size
		case plan.ActionPrune:
			report.BytesPruned += action.Size
		}
		e.logger.Debug("action applied",
			"action", action.Kind.String(),
			"path", action.RelPath,
			"size", action.Size,
			"reason", action.Reason,
		)
	}
}

func (e *executor) apply(ctx context.Context, action plan.Action) error {
	src := filepath.Join(e.sourceRoot, filepath.FromSlash(action.RelPath))
	dst := filepath.Join(e.archiveRoot, filepath.FromSlash(action.RelPath))

	switch action.Kind {
	case plan.ActionCopy:
		return e.fs.CopyFile(ctx, src, dst, action.ModTime)
	case plan.ActionDelete:
		return e.fs.DeleteFile(ctx, src)
	case plan.ActionFetch:
		return e.fs.CopyFile(ctx, dst, src, action.ModTime)
	case plan.ActionPrune:
		return e.fs.DeleteFile(ctx, dst)
	}
	return nil
}
