package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sidetrack/internal/backlog"
	"github.com/desertthunder/sidetrack/internal/services"
	"github.com/desertthunder/sidetrack/internal/shared"
)

// Listener polls the listening account's playback and enqueues each distinct
// track into the backlog.
type Listener struct {
	player services.Player
	store  *backlog.Store
	logger *log.Logger
}

// NewListener creates a listener over the given player and backlog store.
func NewListener(player services.Player, store *backlog.Store, logger *log.Logger) *Listener {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Listener{player: player, store: store, logger: logger}
}

// Tick performs one observe-and-enqueue pass. last is the track ID seen on the
// previous pass; the first return value is the ID to carry into the next pass,
// the second reports whether a new backlog entry was actually inserted (the
// store dedups tracks that are already queued).
//
// The last-seen ID only advances when the observation was handled: a failed
// enqueue leaves it unchanged so the track is retried on the next pass.
func (l *Listener) Tick(ctx context.Context, last string) (string, bool, error) {
	playing, err := l.player.CurrentlyPlaying(ctx)
	if err != nil {
		return last, false, err
	}
	if playing == nil || !playing.IsPlaying {
		return last, false, nil
	}

	track := playing.Track
	if track.ID == "" || track.ID == last {
		return last, false, nil
	}

	added, err := l.store.Enqueue(backlog.Item{
		TrackID: track.ID,
		Title:   track.Title,
		Artist:  track.Artist,
		Album:   track.Album,
		URL:     track.URL,
		URI:     track.URI,
	})
	if err != nil {
		return last, false, err
	}

	if added {
		l.logger.Info("queued track", "track", track.ID, "title", track.Title, "artist", track.Artist)
	} else {
		l.logger.Debug("track already queued", "track", track.ID)
	}
	return track.ID, added, nil
}

// Run polls on the given interval until ctx is cancelled. Errors from a single
// pass are logged and do not stop the loop.
func (l *Listener) Run(ctx context.Context, interval time.Duration, progress chan<- ProgressUpdate) {
	l.logger.Info("watching playback", "service", l.player.Name(), "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		next, added, err := l.Tick(ctx, last)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("playback check failed", "error", err)
		} else if added {
			sendProgress(progress, enqueuedTrackUpdate(l.lastTrack(next)))
		}
		last = next

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// lastTrack recovers display metadata for the progress event from the newest
// backlog entry with the given ID.
func (l *Listener) lastTrack(id string) services.Track {
	items := l.store.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].TrackID == id {
			return services.Track{
				ID:     items[i].TrackID,
				Title:  items[i].Title,
				Artist: items[i].Artist,
				Album:  items[i].Album,
			}
		}
	}
	return services.Track{ID: id}
}
