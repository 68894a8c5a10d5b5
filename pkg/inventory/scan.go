package inventory

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"
)

// ScanError reports that a tree root could not be read at all. It is the
// only fatal inventory failure; unreadable subdirectories below a readable
// root are recorded on the Tree instead.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("unable to scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// SkippedDir records a subtree that could not be enumerated during a scan.
type SkippedDir struct {
	RelPath string
	Err     error
}

// Tree is a snapshot of one folder's regular files, keyed by relative path.
type Tree struct {
	// Root is the absolute path the tree was scanned from.
	Root string

	// Files maps relative path to record.
	Files map[string]*FileRecord

	// Skipped lists subtrees that could not be read. A non-empty list
	// means the snapshot is partial.
	Skipped []SkippedDir
}

// TotalSize returns the sum of all file sizes in the tree.
func (t *Tree) TotalSize() int64 {
	var total int64
	for _, rec := range t.Files {
		total += rec.Size
	}
	return total
}

// Records returns all records ordered by relative path ascending, for
// deterministic iteration.
func (t *Tree) Records() []*FileRecord {
	recs := make([]*FileRecord, 0, len(t.Files))
	for _, rec := range t.Files {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RelPath < recs[j].RelPath })
	return recs
}

// Scan enumerates the regular files under root into a Tree. Entries whose
// base name appears in ignore are excluded. Symlinks and non-regular files
// are skipped. An unreadable root fails with *ScanError; unreadable
// subdirectories are logged, recorded on the Tree, and skipped.
func Scan(root string, classify Classifier, ignore ...string) (*Tree, error) {
	if classify == nil {
		classify = DefaultClassifier
	}
	logger := slog.Default().With("component", "inventory")

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[name] = true
	}

	tree := &Tree{Root: abs, Files: make(map[string]*FileRecord)}

	walkErr := filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == abs {
				return err
			}
			rel, _ := filepath.Rel(abs, p)
			logger.Warn("skipping unreadable subtree", "path", rel, "error", err)
			tree.Skipped = append(tree.Skipped, SkippedDir{RelPath: filepath.ToSlash(rel), Err: err})
			return fs.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		if ignored[d.Name()] {
			return nil
		}
		if !d.Type().IsRegular() {
			logger.Debug("ignoring non-regular entry", "path", p, "type", d.Type().String())
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// File vanished between readdir and stat. Best effort.
			logger.Warn("skipping unreadable file", "path", p, "error", err)
			return nil
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)

		created := creationDateFromName(d.Name())
		if created.IsZero() {
			created = info.ModTime()
		}
		tree.Files[relSlash] = &FileRecord{
			RelPath: relSlash,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Created: created,
			Kind:    classify(relSlash),
		}
		return nil
	})
	if walkErr != nil {
		return nil, &ScanError{Root: root, Err: walkErr}
	}
	return tree, nil
}

// CrossReference marks every source record that has an archive counterpart
// with the same relative path, and whether that counterpart still matches by
// size and modification time (second granularity, to tolerate filesystems
// with coarse timestamps).
func CrossReference(source, archive *Tree) {
	for rel, rec := range source.Files {
		other, ok := archive.Files[rel]
		if !ok {
			rec.InArchive = false
			rec.ArchiveMatches = false
			continue
		}
		rec.InArchive = true
		rec.ArchiveMatches = other.Size == rec.Size && sameModTime(other.ModTime, rec.ModTime)
	}
}

func sameModTime(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
