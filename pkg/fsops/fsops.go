// Package fsops is the file-system capability consumed by the executor. The
// engine only ever sees the FS interface; the OS-backed implementation and
// the no-op dry-run implementation both live here so that planning and
// execution logic stays free of direct os calls.
package fsops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FS is the mutation surface the executor needs. Both operations are
// idempotent: re-copying after a partial copy re-copies and re-stamps, and
// deleting an already-absent file succeeds.
type FS interface {
	// CopyFile copies src to dst, creating parent directories as needed,
	// then sets dst's modification time to modTime.
	CopyFile(ctx context.Context, src, dst string, modTime time.Time) error

	// DeleteFile removes the file at path. A missing file is success.
	DeleteFile(ctx context.Context, path string) error
}

// OS is the real filesystem implementation of FS.
type OS struct{}

// CopyFile copies the file bytes and stamps the destination's mtime. A
// failed copy removes the partial destination so a later retry starts clean.
func (OS) CopyFile(ctx context.Context, src, dst string, modTime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", dst, err)
	}
	if err := copyBytes(src, dst); err != nil {
		if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return errors.Join(err, fmt.Errorf("removing partial copy %s: %w", dst, rmErr))
		}
		return err
	}
	if err := os.Chtimes(dst, time.Now(), modTime); err != nil {
		return fmt.Errorf("stamping mtime on %s: %w", dst, err)
	}
	return nil
}

func copyBytes(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}

// DeleteFile removes path, treating an already-missing file as success so
// that runs stay idempotent under concurrent external deletion.
func (OS) DeleteFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

// Null is the dry-run implementation: every operation succeeds without
// touching the filesystem.
type Null struct{}

// CopyFile does nothing.
func (Null) CopyFile(context.Context, string, string, time.Time) error { return nil }

// DeleteFile does nothing.
func (Null) DeleteFile(context.Context, string) error { return nil }
