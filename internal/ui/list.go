package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sidetrack/internal/backlog"
)

var _ list.Item = queueItem{}

// queueItem wraps [backlog.Item] to implement [list.Item].
type queueItem struct {
	item backlog.Item
}

func (i queueItem) FilterValue() string { return i.item.Title }

func (i queueItem) Title() string {
	if label := i.item.Label(); label != "" {
		return label
	}
	return i.item.TrackID
}

func (i queueItem) Description() string {
	desc := statusLabel(i.item.Status)
	if i.item.AttemptCount > 0 {
		desc = fmt.Sprintf("%s • %d attempt(s)", desc, i.item.AttemptCount)
	}
	if i.item.Status == backlog.StatusFailed && i.item.LastError != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.item.LastError)
	}
	return desc
}

// statusLabel colors a backlog status for list rendering.
func statusLabel(status backlog.Status) string {
	switch status {
	case backlog.StatusDone:
		return styles.ok.Render(string(status))
	case backlog.StatusFailed:
		return styles.err.Render(string(status))
	case backlog.StatusInProgress:
		return styles.warn.Render(string(status))
	default:
		return string(status)
	}
}
