// Package history keeps an optional SQLite journal of run reports.
//
// The journal is write-only from the engine's point of view: reports are
// recorded after execution and never consulted during planning, so engine
// decisions remain a pure function of the two trees and the configuration.
// Its purpose is the "mediarc history" command and post-hoc debugging of
// budget behavior.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"mediarc-hq/mediarc/pkg/config"
	"mediarc-hq/mediarc/pkg/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	started            INTEGER NOT NULL,
	ended              INTEGER NOT NULL,
	mode               TEXT NOT NULL,
	ordering           TEXT NOT NULL,
	dry_run            INTEGER NOT NULL,
	failed             INTEGER NOT NULL,
	bytes_copied       INTEGER NOT NULL,
	bytes_freed        INTEGER NOT NULL,
	source_size_after  INTEGER NOT NULL,
	budget_met         INTEGER NOT NULL,
	report             TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
`

// Journal is a SQLite-backed record of past runs.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the journal database at the
// configured path.
func Open(cfg config.JournalConfig) (*Journal, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", cfg.Path, err)
	}
	// One writer at a time; the journal sees a single process anyway.
	db.SetMaxOpenConns(1)

	busy := cfg.BusyTimeout.Std()
	if busy <= 0 {
		busy = config.DefaultJournalBusyTimeout
	}
	pragmas := fmt.Sprintf("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=%d;", busy.Milliseconds())
	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}
	return &Journal{
		db:     db,
		logger: slog.Default().With("component", "history"),
	}, nil
}

// Record stores one run report. The full report is kept as JSON alongside
// the queryable summary columns.
func (j *Journal) Record(ctx context.Context, report *engine.RunReport) error {
	blob, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, started, ended, mode, ordering, dry_run, failed,
			bytes_copied, bytes_freed, source_size_after, budget_met, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Started.Unix(),
		report.Ended.Unix(),
		report.Mode,
		report.Order,
		boolInt(report.DryRun),
		report.FailedTotal(),
		report.BytesCopied,
		report.BytesFreed,
		report.SourceSizeAfter,
		boolInt(report.BudgetMet),
		string(blob),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", report.RunID, err)
	}
	j.logger.Debug("run recorded", "run_id", report.RunID)
	return nil
}

// List returns the most recent runs, newest first, up to limit.
func (j *Journal) List(ctx context.Context, limit int) ([]*engine.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT report FROM runs ORDER BY started DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var reports []*engine.RunReport
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		var report engine.RunReport
		if err := json.Unmarshal([]byte(blob), &report); err != nil {
			return nil, fmt.Errorf("decoding stored report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// Prune removes journal entries older than the given age. Returns how many
// rows were deleted.
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE started < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying database.
func (j *Journal) Close() error { return j.db.Close() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
