package inventory

import (
	"path"
	"regexp"
	"strings"
	"time"
)

// Kind categorizes a file by its role in the source folder layout.
type Kind int

const (
	// KindOther is any file that is neither media nor a message database.
	KindOther Kind = iota
	// KindMedia is user media (photos, videos, voice notes, documents).
	KindMedia
	// KindDatabase is a message database file, current or rolling backup.
	KindDatabase
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMedia:
		return "media"
	case KindDatabase:
		return "database"
	default:
		return "other"
	}
}

// FileRecord describes one regular file within a scanned tree.
//
// RelPath is the slash-separated path relative to the tree root and is the
// file's identity: a file is "the same" across source and archive iff the
// relative paths match. Weight and Protected are filled in by the policy
// package; InArchive and ArchiveMatches by CrossReference.
type FileRecord struct {
	// RelPath uniquely identifies the file within its tree.
	RelPath string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the filesystem modification time.
	ModTime time.Time

	// Created is the estimated creation date. For files following the
	// WhatsApp media naming convention it is derived from the name,
	// otherwise it falls back to ModTime.
	Created time.Time

	// Kind is the resolved file kind.
	Kind Kind

	// InArchive reports whether a file with the same relative path exists
	// in the archive tree.
	InArchive bool

	// ArchiveMatches reports whether the archive copy matches this file by
	// size and modification time. Only meaningful when InArchive is true.
	ArchiveMatches bool

	// Protected marks the file exempt from deletion.
	Protected bool

	// Weight is the deletion priority assigned by the weight policy.
	// Higher weight means deleted earlier. Undefined for protected files.
	Weight float64
}

// AgeAt returns how old the file is at the given instant, based on its
// estimated creation date. Never negative.
func (r *FileRecord) AgeAt(now time.Time) time.Duration {
	age := now.Sub(r.Created)
	if age < 0 {
		return 0
	}
	return age
}

// Classifier maps a relative path to a Kind. The engine takes kinds as
// already-resolved input so that no vendor folder layout is baked into the
// planning logic.
type Classifier func(relPath string) Kind

// mediaNameRe matches WhatsApp media names such as
// "IMG-20240131-WA0042.jpg", capturing the embedded date.
var mediaNameRe = regexp.MustCompile(`^.*-(\d{8})-WA[0-9]{4}\..+$`)

// DefaultClassifier resolves kinds using the WhatsApp folder convention:
// everything under "Databases/" or named like a message store is a database,
// everything under "Media/" is media, the rest is other.
func DefaultClassifier(relPath string) Kind {
	switch {
	case strings.HasPrefix(relPath, "Databases/"):
		return KindDatabase
	case strings.Contains(path.Base(relPath), "msgstore"):
		return KindDatabase
	case strings.HasPrefix(relPath, "Media/"):
		return KindMedia
	default:
		return KindOther
	}
}

// creationDateFromName extracts the creation day embedded in a WhatsApp
// media file name. Returns the zero time when the name does not follow the
// convention.
func creationDateFromName(name string) time.Time {
	m := mediaNameRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}
	}
	return t
}
