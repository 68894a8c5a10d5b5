package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, root, rel string, size int) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestScan_Basic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Media/WhatsApp Images/IMG-20240131-WA0042.jpg", 100)
	writeFile(t, root, "Databases/msgstore.db.crypt15", 200)
	writeFile(t, root, "notes.txt", 10)

	tree, err := Scan(root, nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(tree.Files) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(tree.Files), tree.Files)
	}
	if got := tree.TotalSize(); got != 310 {
		t.Errorf("TotalSize = %d, want 310", got)
	}

	img := tree.Files["Media/WhatsApp Images/IMG-20240131-WA0042.jpg"]
	if img == nil {
		t.Fatal("image record missing; relative paths must use forward slashes")
	}
	if img.Kind != KindMedia {
		t.Errorf("image kind = %s, want media", img.Kind)
	}
	if db := tree.Files["Databases/msgstore.db.crypt15"]; db.Kind != KindDatabase {
		t.Errorf("database kind = %s, want database", db.Kind)
	}
	if other := tree.Files["notes.txt"]; other.Kind != KindOther {
		t.Errorf("notes kind = %s, want other", other.Kind)
	}
}

func TestScan_CreatedFromName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Media/IMG-20231224-WA0007.jpg", 1)
	writeFile(t, root, "Media/random.jpg", 1)

	tree, err := Scan(root, nil)
	if err != nil {
		t.Fatal(err)
	}

	named := tree.Files["Media/IMG-20231224-WA0007.jpg"]
	want := time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC)
	if !named.Created.Equal(want) {
		t.Errorf("named file Created = %v, want %v", named.Created, want)
	}

	plain := tree.Files["Media/random.jpg"]
	if !plain.Created.Equal(plain.ModTime) {
		t.Errorf("unnamed file Created = %v, want mtime %v", plain.Created, plain.ModTime)
	}
}

func TestScan_Ignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".mediarc", 0)
	writeFile(t, root, "Media/a.jpg", 1)

	tree, err := Scan(root, nil, ".mediarc")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tree.Files[".mediarc"]; ok {
		t.Error("ignored name should not be inventoried")
	}
	if len(tree.Files) != 1 {
		t.Errorf("expected 1 file, got %d", len(tree.Files))
	}
}

func TestScan_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := writeFile(t, root, "Media/a.jpg", 1)
	if err := os.Symlink(target, filepath.Join(root, "Media", "link.jpg")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tree, err := Scan(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tree.Files["Media/link.jpg"]; ok {
		t.Error("symlinks must not be inventoried")
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("error type = %T, want *ScanError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should unwrap to ErrNotExist, got %v", err)
	}
}

func TestScan_UnreadableSubdir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not bind root")
	}
	root := t.TempDir()
	writeFile(t, root, "Media/a.jpg", 1)
	locked := filepath.Join(root, "Media", "locked")
	if err := os.MkdirAll(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "Media/locked/hidden.jpg", 1)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	tree, err := Scan(root, nil)
	if err != nil {
		t.Fatalf("partial scan should not fail: %v", err)
	}
	if len(tree.Skipped) != 1 {
		t.Fatalf("Skipped = %v, want one entry", tree.Skipped)
	}
	if tree.Skipped[0].RelPath != "Media/locked" {
		t.Errorf("skipped path = %q", tree.Skipped[0].RelPath)
	}
	if _, ok := tree.Files["Media/a.jpg"]; !ok {
		t.Error("readable files must survive a partial scan")
	}
}

func TestRecords_Sorted(t *testing.T) {
	tree := &Tree{Files: map[string]*FileRecord{
		"b": {RelPath: "b"},
		"a": {RelPath: "a"},
		"c": {RelPath: "c"},
	}}
	recs := tree.Records()
	for i, want := range []string{"a", "b", "c"} {
		if recs[i].RelPath != want {
			t.Fatalf("Records()[%d] = %s, want %s", i, recs[i].RelPath, want)
		}
	}
}

func TestCrossReference(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mk := func(rel string, size int64, mod time.Time) *FileRecord {
		return &FileRecord{RelPath: rel, Size: size, ModTime: mod}
	}
	source := &Tree{Files: map[string]*FileRecord{
		"match":     mk("match", 10, now),
		"resized":   mk("resized", 10, now),
		"retouched": mk("retouched", 10, now),
		"new":       mk("new", 10, now),
	}}
	archive := &Tree{Files: map[string]*FileRecord{
		"match":     mk("match", 10, now.Add(500*time.Millisecond)),
		"resized":   mk("resized", 9, now),
		"retouched": mk("retouched", 10, now.Add(-time.Hour)),
	}}

	CrossReference(source, archive)

	tests := []struct {
		rel              string
		inArchive, match bool
	}{
		{"match", true, true},
		{"resized", true, false},
		{"retouched", true, false},
		{"new", false, false},
	}
	for _, tt := range tests {
		rec := source.Files[tt.rel]
		if rec.InArchive != tt.inArchive || rec.ArchiveMatches != tt.match {
			t.Errorf("%s: InArchive=%v ArchiveMatches=%v, want %v %v",
				tt.rel, rec.InArchive, rec.ArchiveMatches, tt.inArchive, tt.match)
		}
	}
}

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		rel  string
		want Kind
	}{
		{"Media/WhatsApp Video/VID-20240101-WA0001.mp4", KindMedia},
		{"Databases/msgstore-2024-01-01.1.db.crypt15", KindDatabase},
		{"Backups/msgstore.db.crypt15", KindDatabase},
		{"Media/WhatsApp Images/.nomedia", KindMedia},
		{"readme.txt", KindOther},
	}
	for _, tt := range tests {
		if got := DefaultClassifier(tt.rel); got != tt.want {
			t.Errorf("DefaultClassifier(%q) = %s, want %s", tt.rel, got, tt.want)
		}
	}
}
