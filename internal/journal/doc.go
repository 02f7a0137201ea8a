// Package journal is the optional SQLite event journal: an append-only
// record of decoded commands, GPIO writes, and action run-state
// transitions, for post-hoc inspection of what the bridge did and when.
package journal
