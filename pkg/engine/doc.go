/*
Package engine ties the inventory, policy, plan, and fsops packages into a
single Run entry point.

A run is one pass: scan both trees into consistent snapshots, classify and
weigh the source, build the action plan, execute it, and return a RunReport.
Nothing persists between runs except the archive folder's own contents,
which double as the "already backed up" ledger; planning is a pure function
of the two snapshots and the configuration.

Only a completely unreadable tree root aborts a run. Skipped subtrees,
per-action failures, and an unreachable size budget are aggregated into the
report and the run continues.
*/
package engine
