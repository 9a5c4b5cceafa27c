package backlog

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a backlog item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusInProgress, StatusDone, StatusFailed}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// RecoveredNote is recorded on items moved back to pending after a restart
// found them stranded in_progress.
const RecoveredNote = "recovered after restart"

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends an item's lifecycle.
// Failed items are not terminal: they re-enter the eligible set for retry.
func (s Status) IsTerminal() bool {
	return s == StatusDone
}

// Item is one unit of work in the backlog document.
type Item struct {
	TrackID      string     `json:"track_id"`
	Title        string     `json:"title"`
	Artist       string     `json:"artist,omitempty"`
	Album        string     `json:"album,omitempty"`
	URL          string     `json:"url,omitempty"`
	URI          string     `json:"uri,omitempty"`
	Status       Status     `json:"status"`
	AddedAt      time.Time  `json:"added_at"`
	AttemptCount int        `json:"attempt_count"`
	LastError    string     `json:"last_error,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Eligible reports whether the processor should pick this item up:
// pending items and failed items awaiting retry.
func (i Item) Eligible() bool {
	return i.Status == StatusPending || i.Status == StatusFailed
}

// Label returns "Artist - Title" (or just the title) for logging.
func (i Item) Label() string {
	if i.Artist == "" {
		return i.Title
	}
	return i.Artist + " - " + i.Title
}
