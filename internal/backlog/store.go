package backlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sidetrack/internal/shared"
	"github.com/gofrs/flock"
)

// Store is the durable backlog queue shared by the listener and the processor.
//
// The document may also be open in another process (the TUI next to the
// daemon, or the watch/drain split deployment), so every read-modify-write
// re-reads the document under a cross-process file lock. The in-memory slice
// is a cache of the last read.
//
// The zero value is not usable; construct with [NewStore].
type Store struct {
	path   string
	logger *log.Logger
	flk    *flock.Flock

	mu    sync.Mutex
	items []Item
}

// NewStore opens (or creates) the backlog document at path.
//
// A missing document is a first run and yields an empty store. An unreadable
// or unparsable document returns [shared.ErrBacklogCorrupt]; callers must not
// proceed, the operator's pending work would be lost.
//
// Opening never rewrites item statuses; the processor owner calls [Store.Recover]
// to requeue items stranded by a previous crash.
func NewStore(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create backlog directory: %w", err)
	}

	s := &Store{path: path, logger: logger, flk: flock.New(path + ".lock")}

	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock backlog: %w", err)
	}
	defer s.flk.Unlock()

	items, err := s.read()
	if err != nil {
		return nil, err
	}
	if items == nil {
		if err := s.persist(nil); err != nil {
			return nil, err
		}
	}
	s.items = items
	return s, nil
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the document from disk, replacing the in-memory snapshot.
// Strictly read-only: a viewer refreshing its picture of the queue must never
// alter what another process has persisted.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flk.RLock(); err != nil {
		return fmt.Errorf("failed to lock backlog: %w", err)
	}
	defer s.flk.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// Recover moves items stranded in_progress by a hard kill back to pending so
// they stay retry-eligible. Only the process that owns download attempts (the
// daemon or a drain run) calls this, at startup; a concurrently running
// process may hold an item legitimately in_progress, so viewers must not.
// Returns the number of items requeued.
func (s *Store) Recover() (int, error) {
	recovered := 0
	err := s.update(func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].Status == StatusInProgress {
				items[i].Status = StatusPending
				items[i].LastError = RecoveredNote
				recovered++
			}
		}
		if recovered == 0 {
			return nil, errNoChange
		}
		return items, nil
	})
	if err != nil {
		return 0, err
	}
	if recovered > 0 {
		s.logger.Warn("recovered stranded items", "count", recovered)
	}
	return recovered, nil
}

// Enqueue inserts item unless a non-terminal entry already holds its track id.
// Returns true when the item was newly added; the document is persisted before
// a successful return.
func (s *Store) Enqueue(item Item) (bool, error) {
	if item.TrackID == "" {
		return false, fmt.Errorf("%w: empty track id", shared.ErrInvalidInput)
	}

	added := false
	err := s.update(func(items []Item) ([]Item, error) {
		for _, existing := range items {
			if existing.TrackID == item.TrackID && !existing.Status.IsTerminal() {
				return nil, errNoChange
			}
		}

		item.Status = StatusPending
		item.AttemptCount = 0
		item.LastError = ""
		item.CompletedAt = nil
		if item.AddedAt.IsZero() {
			item.AddedAt = time.Now().UTC()
		}
		added = true
		return append(items, item), nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// ListPending returns the pending items in insertion order.
func (s *Store) ListPending() []Item {
	return s.filter(func(i Item) bool { return i.Status == StatusPending })
}

// ListEligible returns the items the processor should attempt, in insertion
// order: pending items plus failed items awaiting retry.
func (s *Store) ListEligible() []Item {
	return s.filter(Item.Eligible)
}

// Items returns a copy of the full document, insertion order preserved.
func (s *Store) Items() []Item {
	return s.filter(func(Item) bool { return true })
}

// Len returns the number of non-terminal items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		if !item.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// MarkInProgress transitions an item to in_progress and increments its
// attempt count. Called by the processor immediately before a download.
func (s *Store) MarkInProgress(trackID string) error {
	return s.transition(trackID, func(item *Item) {
		item.Status = StatusInProgress
		item.AttemptCount++
	})
}

// MarkDone transitions an item to done and clears its last error.
func (s *Store) MarkDone(trackID string) error {
	now := time.Now().UTC()
	return s.transition(trackID, func(item *Item) {
		item.Status = StatusDone
		item.LastError = ""
		item.CompletedAt = &now
	})
}

// MarkFailed transitions an item to failed, recording the reason for the
// operator. The item stays retry-eligible.
func (s *Store) MarkFailed(trackID, reason string) error {
	return s.transition(trackID, func(item *Item) {
		item.Status = StatusFailed
		item.LastError = reason
	})
}

// Retry moves a failed item straight back to pending. Operator command.
func (s *Store) Retry(trackID string) error {
	return s.update(func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].TrackID == trackID && items[i].Status == StatusFailed {
				items[i].Status = StatusPending
				return items, nil
			}
		}
		return nil, fmt.Errorf("%w: no failed item %s", shared.ErrItemNotFound, trackID)
	})
}

// Remove deletes the newest entry for a track id from the document. Operator
// command; the queue itself never drops items.
func (s *Store) Remove(trackID string) error {
	return s.update(func(items []Item) ([]Item, error) {
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].TrackID == trackID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrItemNotFound, trackID)
	})
}

// Clear empties the document. Operator command.
func (s *Store) Clear() error {
	return s.update(func([]Item) ([]Item, error) {
		return []Item{}, nil
	})
}

// transition applies mutate to the newest non-terminal entry for trackID and
// persists the result.
func (s *Store) transition(trackID string, mutate func(*Item)) error {
	return s.update(func(items []Item) ([]Item, error) {
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].TrackID == trackID && !items[i].Status.IsTerminal() {
				mutate(&items[i])
				return items, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrItemNotFound, trackID)
	})
}

// errNoChange signals that an apply func left the document as-is, so the
// update succeeds without a write.
var errNoChange = fmt.Errorf("no change")

// update runs one locked read-modify-write cycle: take the file lock, read the
// current document (another process may have written since our last read),
// apply the mutation, persist, then refresh the in-memory cache.
func (s *Store) update(apply func([]Item) ([]Item, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to lock backlog: %w", err)
	}
	defer s.flk.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	next, err := apply(current)
	if err == errNoChange {
		s.items = current
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.persist(next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// read loads the document from disk. Missing file means an empty store (nil
// slice); an unreadable or unparsable file is corruption.
func (s *Store) read() ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBacklogCorrupt, err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrBacklogCorrupt, s.path, err)
	}
	return items, nil
}

func (s *Store) filter(keep func(Item) bool) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Item
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// persist writes the document atomically: marshal to a temp file in the same
// directory, fsync, then rename over the target. A crash at any point leaves
// either the old or the new document, never a torn one.
func (s *Store) persist(items []Item) error {
	if items == nil {
		items = []Item{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backlog: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp document: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp document: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace backlog document: %w", err)
	}
	return nil
}
