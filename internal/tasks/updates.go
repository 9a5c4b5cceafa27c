package tasks

import (
	"fmt"

	"github.com/desertthunder/sidetrack/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	WatchPlayback Phase = iota
	EnqueueTrack
	DrainBacklog
	DownloadTrack
)

func (p Phase) String() string {
	switch p {
	case WatchPlayback:
		return "watch_playback"
	case EnqueueTrack:
		return "enqueue_track"
	case DrainBacklog:
		return "drain_backlog"
	case DownloadTrack:
		return "download_track"
	default:
		return ""
	}
}

func enqueuedTrackUpdate(track services.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnqueueTrack,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Queued for download: %s - %s", track.Artist, track.Title),
		Data:    track,
	}
}

func drainStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DrainBacklog,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Processing backlog (%d eligible)...", total),
	}
}

func downloadingUpdate(step, total int, track services.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.Artist, track.Title),
	}
}

func downloadDoneUpdate(step, total int, track services.Track, outcome services.Outcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, track.Title, outcome),
		Data:    outcome,
	}
}

func downloadFailedUpdate(step, total int, track services.Track, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, track.Title, err),
	}
}

func drainDoneUpdate(result *DrainResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DrainBacklog,
		Step:    result.Processed,
		Total:   result.Processed,
		Message: fmt.Sprintf("Backlog pass complete: %d downloaded, %d existing, %d failed",
			result.Downloaded, result.Existing, result.Failed),
		Data: result,
	}
}
