/*
Package inventory enumerates file trees into records the planning engine can
reason about.

A Tree is a snapshot of one folder: every regular file under the root, keyed
by its slash-separated relative path, with size, modification time, an
estimated creation date, and a Kind (media, database, other). Symbolic links
and other non-regular entries are skipped. Kind resolution is pluggable via
the Classifier type; DefaultClassifier understands the WhatsApp folder layout
but callers may substitute their own mapping.

Scanning a root that cannot be read at all fails with *ScanError. A readable
root with unreadable subdirectories produces a partial snapshot: the skipped
subtrees are recorded on the Tree and the scan continues, because a backup
run should not abort over one locked directory.

CrossReference links a source Tree against an archive Tree by relative path,
marking which source files already have an archive copy and whether that copy
still matches by size and modification time.
*/
package inventory
