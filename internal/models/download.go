package models

import (
	"fmt"
	"time"
)

// Download outcomes as stored in history.
const (
	OutcomeDownloaded = "downloaded"
	OutcomeExists     = "exists"
)

// DownloadRecord is one archived download, written after a backlog item
// reaches done.
type DownloadRecord struct {
	ID           string    `json:"id"`
	TrackID      string    `json:"track_id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist,omitempty"`
	Album        string    `json:"album,omitempty"`
	Destination  string    `json:"destination"`
	Outcome      string    `json:"outcome"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

func (d *DownloadRecord) Key() string { return d.ID }

// Validate checks required fields and the outcome value.
func (d *DownloadRecord) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("download record ID is required")
	}
	if d.TrackID == "" {
		return fmt.Errorf("download record track ID is required")
	}
	if d.Outcome != OutcomeDownloaded && d.Outcome != OutcomeExists {
		return fmt.Errorf("invalid download outcome: %q", d.Outcome)
	}
	return nil
}
