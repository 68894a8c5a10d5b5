/*
Package plan turns classified, weighted inventories into an ordered action
plan for one run.

Building a plan is pure: no I/O, no clock reads, no ambient state. The
builder is a function of (source tree, archive tree, config) and the budget
arithmetic threads one explicit running size accumulator, so every decision
is derived from the pre-plan snapshot and plans are reproducible.

Plan ordering is the correctness backbone of the whole tool: every Copy
precedes every Delete, so a file is never removed from the source before an
up-to-date copy exists in the archive; Fetch actions (sync mode) come after
all Deletes; archive Prune actions come last.
*/
package plan
