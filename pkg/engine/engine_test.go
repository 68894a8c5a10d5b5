package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediarc-hq/mediarc/pkg/fsops"
	"mediarc-hq/mediarc/pkg/plan"
	"mediarc-hq/mediarc/pkg/policy"
)

const mib = 1 << 20

func writeAged(t *testing.T, root, rel string, size int, age time.Duration) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(p, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func exists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	t.Fatal(err)
	return false
}

const day = 24 * time.Hour

func TestRun_Backup(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/WhatsApp Images/IMG-20240101-WA0001.jpg", 100, 10*day)
	writeAged(t, source, "Databases/msgstore.db.crypt15", 200, 1*day)

	report, err := Run(context.Background(), Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeBackup,
		Order:       policy.OrderSmallerNewer,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !exists(t, archive, "Media/WhatsApp Images/IMG-20240101-WA0001.jpg") {
		t.Error("media file not archived")
	}
	if !exists(t, archive, "Databases/msgstore.db.crypt15") {
		t.Error("database not archived")
	}
	if !exists(t, archive, ".mediarc") {
		t.Error("archive tag missing")
	}
	if !exists(t, source, "Media/WhatsApp Images/IMG-20240101-WA0001.jpg") {
		t.Error("backup mode must never delete source files")
	}

	if got := report.Stats["copy"]; got == nil || got.Succeeded != 2 {
		t.Errorf("copy stats = %+v, want 2 succeeded", got)
	}
	if report.BytesCopied != 300 {
		t.Errorf("BytesCopied = %d, want 300", report.BytesCopied)
	}
	if report.FailedTotal() != 0 {
		t.Errorf("unexpected failures: %+v", report.Errors)
	}

	// Archived copies carry the source mtime so later runs can compare.
	srcInfo, _ := os.Stat(filepath.Join(source, "Databases", "msgstore.db.crypt15"))
	dstInfo, _ := os.Stat(filepath.Join(archive, "Databases", "msgstore.db.crypt15"))
	if !srcInfo.ModTime().Truncate(time.Second).Equal(dstInfo.ModTime().Truncate(time.Second)) {
		t.Errorf("archive mtime %v differs from source %v", dstInfo.ModTime(), srcInfo.ModTime())
	}
}

func TestRun_TrimDeletesOnlyAfterCopy(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/newer.jpg", 10*mib, 10*day)
	writeAged(t, source, "Media/older.jpg", 10*mib, 40*day)

	report, err := Run(context.Background(), Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeTrim,
		Order:       policy.OrderNewer,
		SizeLimit:   15 * mib,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Both files must be archived, and the older one trimmed from source.
	if !exists(t, archive, "Media/older.jpg") {
		t.Fatal("trimmed file missing from archive: data loss")
	}
	if exists(t, source, "Media/older.jpg") {
		t.Error("older file should have been trimmed")
	}
	if !exists(t, source, "Media/newer.jpg") {
		t.Error("newer file should have survived")
	}
	if report.SourceSizeAfter != 10*mib {
		t.Errorf("SourceSizeAfter = %d, want %d", report.SourceSizeAfter, 10*mib)
	}
	if !report.BudgetMet {
		t.Error("budget should be met")
	}
}

func TestRun_Idempotent(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/newer.jpg", 5*mib, 10*day)
	writeAged(t, source, "Media/older.jpg", 5*mib, 40*day)

	cfg := Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeTrim,
		Order:       policy.OrderNewer,
		SizeLimit:   6 * mib,
	}
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	second, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	for kind, stats := range second.Stats {
		if stats.Succeeded+stats.Failed > 0 {
			t.Errorf("second run performed %s actions: %+v", kind, stats)
		}
	}
	if second.BytesCopied != 0 || second.BytesFreed != 0 {
		t.Errorf("second run moved bytes: copied=%d freed=%d", second.BytesCopied, second.BytesFreed)
	}
}

func TestRun_DryRun(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/IMG-20240101-WA0001.jpg", 10*mib, 10*day)
	writeAged(t, source, "Media/IMG-20240101-WA0002.jpg", 10*mib, 40*day)

	report, err := Run(context.Background(), Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeTrim,
		Order:       policy.OrderNewer,
		SizeLimit:   15 * mib,
		DryRun:      true,
	})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	if _, statErr := os.Stat(archive); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("dry run created the archive directory")
	}
	if !exists(t, source, "Media/IMG-20240101-WA0002.jpg") {
		t.Error("dry run deleted a source file")
	}
	if len(report.Actions) != 3 {
		t.Errorf("dry-run report lists %d actions, want 3 (2 copies, 1 delete)", len(report.Actions))
	}
	if report.SourceSizeAfter != 10*mib {
		t.Errorf("projected SourceSizeAfter = %d, want %d", report.SourceSizeAfter, 10*mib)
	}
}

func TestRun_SyncFetches(t *testing.T) {
	source := t.TempDir()
	archive := t.TempDir()
	writeAged(t, source, "Media/IMG-20240101-WA0001.jpg", 2*mib, 5*day)
	writeAged(t, archive, "Media/IMG-20230601-WA0009.jpg", 3*mib, 200*day)
	if err := os.WriteFile(filepath.Join(archive, TagName), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Run(context.Background(), Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeSync,
		Order:       policy.OrderSmallerNewer,
		SizeLimit:   10 * mib,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !exists(t, source, "Media/IMG-20230601-WA0009.jpg") {
		t.Error("archived media not fetched back into free space")
	}
	if report.BytesFetched != 3*mib {
		t.Errorf("BytesFetched = %d, want %d", report.BytesFetched, 3*mib)
	}
	if report.SourceSizeAfter != 5*mib {
		t.Errorf("SourceSizeAfter = %d, want %d", report.SourceSizeAfter, 5*mib)
	}
}

func TestRun_KeepNewerThan(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/fresh.jpg", 10*mib, 12*time.Hour)

	report, err := Run(context.Background(), Config{
		SourceRoot:    source,
		ArchiveRoot:   archive,
		Mode:          plan.ModeTrim,
		Order:         policy.OrderNewer,
		SizeLimit:     1 * mib,
		KeepNewerThan: 2 * day,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !exists(t, source, "Media/fresh.jpg") {
		t.Fatal("age-protected file was deleted")
	}
	if report.BudgetMet {
		t.Error("budget should be reported unreachable")
	}
	if report.Shortfall != 9*mib {
		t.Errorf("Shortfall = %d, want %d", report.Shortfall, 9*mib)
	}
}

func TestRun_SourceLayoutCheck(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "archive")

	t.Run("plain folder rejected", func(t *testing.T) {
		source := t.TempDir()
		writeAged(t, source, "file.txt", 1, 0)
		_, err := Run(context.Background(), Config{SourceRoot: source, ArchiveRoot: archive, Mode: plan.ModeBackup})
		if !errors.Is(err, ErrSourceNotMediaFolder) {
			t.Fatalf("err = %v, want ErrSourceNotMediaFolder", err)
		}
	})

	t.Run("archive as source rejected", func(t *testing.T) {
		source := t.TempDir()
		if err := os.MkdirAll(filepath.Join(source, "Media"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(source, TagName), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Run(context.Background(), Config{SourceRoot: source, ArchiveRoot: archive, Mode: plan.ModeBackup})
		if !errors.Is(err, ErrSourceNotMediaFolder) {
			t.Fatalf("err = %v, want ErrSourceNotMediaFolder", err)
		}
	})

	t.Run("skip flag allows any layout", func(t *testing.T) {
		source := t.TempDir()
		writeAged(t, source, "file.txt", 1, 0)
		_, err := Run(context.Background(), Config{
			SourceRoot:      source,
			ArchiveRoot:     filepath.Join(t.TempDir(), "archive"),
			Mode:            plan.ModeBackup,
			SkipSourceCheck: true,
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	})
}

func TestRun_CancelledContextSkips(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/IMG-20240101-WA0001.jpg", 100, 10*day)
	writeAged(t, source, "Media/IMG-20240101-WA0002.jpg", 100, 10*day)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeBackup,
		Order:       policy.OrderNewer,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := report.Stats["copy"]; got == nil || got.Skipped != 2 {
		t.Errorf("copy stats = %+v, want 2 skipped", got)
	}
	if exists(t, archive, "Media/IMG-20240101-WA0001.jpg") {
		t.Error("cancelled run still copied files")
	}
}

// copyBlockFS is the real filesystem except that copies of one file fail.
type copyBlockFS struct {
	fsops.FS
	blockSuffix string
}

func (f copyBlockFS) CopyFile(ctx context.Context, src, dst string, modTime time.Time) error {
	if strings.HasSuffix(src, f.blockSuffix) {
		return errors.New("simulated device error")
	}
	return f.FS.CopyFile(ctx, src, dst, modTime)
}

// TestRun_FailedCopyBlocksDelete: when archiving a file fails, its planned
// deletion must not run, or the only copy of the file is gone.
func TestRun_FailedCopyBlocksDelete(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/newer.jpg", 10*mib, 10*day)
	writeAged(t, source, "Media/older.jpg", 10*mib, 40*day)

	report, err := Run(context.Background(), Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeTrim,
		Order:       policy.OrderNewer,
		SizeLimit:   15 * mib,
		FS:          copyBlockFS{FS: fsops.OS{}, blockSuffix: "older.jpg"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !exists(t, source, "Media/older.jpg") {
		t.Fatal("file deleted although its archive copy failed: data loss")
	}
	if got := report.Stats["copy"]; got == nil || got.Failed != 1 || got.Succeeded != 1 {
		t.Errorf("copy stats = %+v, want 1 failed 1 succeeded", got)
	}
	if got := report.Stats["delete"]; got == nil || got.Skipped != 1 || got.Succeeded != 0 {
		t.Errorf("delete stats = %+v, want 1 skipped 0 succeeded", got)
	}
	if report.BytesFreed != 0 {
		t.Errorf("BytesFreed = %d, want 0", report.BytesFreed)
	}
}

func TestRun_ArchiveNomediaNeverPruned(t *testing.T) {
	source := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	writeAged(t, source, "Media/WhatsApp Images/.nomedia", 0, 500*day)
	writeAged(t, source, "Media/WhatsApp Images/IMG-20240101-WA0002.jpg", 10*mib, 40*day)

	_, err := Run(context.Background(), Config{
		SourceRoot:  source,
		ArchiveRoot: archive,
		Mode:        plan.ModeTrim,
		Order:       policy.OrderNewer,
		SizeLimit:   1 * mib,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !exists(t, source, "Media/WhatsApp Images/.nomedia") {
		t.Error(".nomedia marker must survive trimming")
	}
	if exists(t, source, "Media/WhatsApp Images/IMG-20240101-WA0002.jpg") {
		t.Error("media file should have been trimmed")
	}
}
