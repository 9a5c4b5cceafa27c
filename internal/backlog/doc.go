// Package backlog implements the durable work queue bridging the listener and
// the download processor.
//
// # Document
//
// The queue is persisted as a single JSON array of [Item] records at a
// configured path. Every mutation rewrites the whole document through a
// temp-file-then-rename cycle, so a crash mid-write can never leave a torn
// file behind: readers (including a restarted process) always observe the
// last fully committed snapshot.
//
// # Deduplication
//
// A track id appears at most once among non-terminal items (pending,
// in_progress, failed). [Store.Enqueue] of an already-present non-terminal
// track is a no-op; once an item reaches done, the same track may be enqueued
// again.
//
// # Recovery
//
// Items stranded in_progress by a hard kill are moved back to pending by
// [Store.Recover], which the process that owns download attempts calls once
// at startup. Viewers (the TUI, the backlog commands) open and [Store.Reload]
// the document without ever rewriting statuses: an item another process holds
// in_progress is an active download, not a stranded one. A missing document
// means an empty store (first run); an unparsable document is reported as
// [shared.ErrBacklogCorrupt] and callers must treat it as fatal rather than
// discard an operator's pending work.
//
// # Concurrency
//
// Within the process all operations serialize on one mutex. Across processes
// (the TUI beside the daemon, or the watch/drain split) every mutation is a
// read-modify-write under a flock-held lock file, re-reading the document
// before applying the change so concurrent handles never lose each other's
// updates. The in-memory snapshot is only replaced after the document has
// landed on disk, so a failed write leaves both memory and disk in the
// previous committed state.
package backlog
