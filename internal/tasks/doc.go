// Package tasks orchestrates the two long-running loops of the daemon.
//
// # Core Operations
//
//  1. [Listener.Tick] : One observe-and-enqueue pass
//     - Polls the listening account's current playback
//     - Skips repeats of the last-seen track and non-track playback
//     - Enqueues each distinct track into the backlog
//
//  2. [Processor.Drain] : One backlog pass
//     - Walks eligible items (pending and failed) in insertion order
//     - Claims each item as in_progress, then invokes the download tool
//     - Records done or failed per item; one failure never aborts the pass
//
// [Daemon] runs both loops concurrently on independent intervals; they
// coordinate only through the backlog store.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Shutdown
//
// Cancelling the context stops both loops between items. The in-flight
// download runs on a detached context so it completes and its outcome is
// persisted before Run returns.
package tasks
