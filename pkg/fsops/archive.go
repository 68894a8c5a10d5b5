package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrArchiveNotEmpty is returned when the configured archive path points at
// an existing non-empty directory that was never tagged as a mediarc
// archive. Refusing it protects a mistyped path from being colonized.
var ErrArchiveNotEmpty = errors.New("archive folder is not a mediarc archive and not empty")

// EnsureArchiveRoot prepares the archive directory for use: it creates the
// directory if missing and drops the tag file that marks it as an archive.
// An existing directory without the tag is accepted only when empty. In
// dry-run mode nothing is written; a missing or untagged-empty directory is
// treated as a brand new archive.
func EnsureArchiveRoot(root, tagName string, dryRun bool) error {
	tagPath := filepath.Join(root, tagName)

	if _, err := os.Stat(tagPath); err == nil {
		return nil
	}

	entries, err := os.ReadDir(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if dryRun {
			return nil
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("creating archive folder %s: %w", root, err)
		}
	case err != nil:
		return fmt.Errorf("reading archive folder %s: %w", root, err)
	case len(entries) > 0:
		return fmt.Errorf("%w: %s", ErrArchiveNotEmpty, root)
	}

	if dryRun {
		return nil
	}
	if err := os.WriteFile(tagPath, nil, 0o644); err != nil {
		return fmt.Errorf("writing archive tag %s: %w", tagPath, err)
	}
	return nil
}
