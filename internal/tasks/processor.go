package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sidetrack/internal/backlog"
	"github.com/desertthunder/sidetrack/internal/services"
	"github.com/desertthunder/sidetrack/internal/shared"
)

// defaultMaxPerRun caps how many items a single drain pass attempts.
const defaultMaxPerRun = 10

// RecordFunc archives a completed download. Wired to the history repository by
// the command layer; nil disables archiving.
type RecordFunc func(ctx context.Context, track services.Track, destination string, outcome services.Outcome) error

// DrainResult summarizes one backlog pass.
type DrainResult struct {
	Processed  int `json:"processed"`  // Items attempted
	Downloaded int `json:"downloaded"` // Fresh downloads
	Existing   int `json:"existing"`   // Already on disk
	Failed     int `json:"failed"`     // Left in failed for retry
	Skipped    int `json:"skipped"`    // Over the attempt limit
}

// Processor drains the backlog through the download tool, one item at a time.
type Processor struct {
	downloader services.Downloader
	store      *backlog.Store
	logger     *log.Logger
	record     RecordFunc

	// MaxPerRun caps items per drain pass; 0 uses the default.
	MaxPerRun int
	// MaxAttempts skips items that failed this many times; 0 retries forever.
	MaxAttempts int
}

// NewProcessor creates a processor over the given downloader and store.
func NewProcessor(downloader services.Downloader, store *backlog.Store, record RecordFunc, logger *log.Logger) *Processor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Processor{
		downloader: downloader,
		store:      store,
		logger:     logger,
		record:     record,
		MaxPerRun:  defaultMaxPerRun,
	}
}

// Drain attempts every eligible backlog item in insertion order, up to
// MaxPerRun. Each item is isolated: a failed download marks that item failed
// and the pass moves on. Cancelling ctx stops the pass between items; the
// in-flight download always runs to completion so its status gets recorded.
func (p *Processor) Drain(ctx context.Context, progress chan<- ProgressUpdate) (*DrainResult, error) {
	eligible := p.store.ListEligible()
	limit := p.MaxPerRun
	if limit <= 0 {
		limit = defaultMaxPerRun
	}
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	result := &DrainResult{}
	if len(eligible) == 0 {
		return result, nil
	}

	p.logger.Info("draining backlog", "eligible", len(eligible))
	sendProgress(progress, drainStartUpdate(len(eligible)))

	for i, item := range eligible {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if p.MaxAttempts > 0 && item.AttemptCount >= p.MaxAttempts {
			p.logger.Warn("attempt limit reached, skipping", "track", item.TrackID, "attempts", item.AttemptCount)
			result.Skipped++
			continue
		}

		track := itemTrack(item)
		sendProgress(progress, downloadingUpdate(i+1, len(eligible), track))

		if err := p.store.MarkInProgress(item.TrackID); err != nil {
			p.logger.Error("failed to claim item", "track", item.TrackID, "error", err)
			continue
		}
		result.Processed++

		// Shutdown must not strand the item in in_progress, so the
		// download itself ignores cancellation.
		outcome, err := p.downloader.Download(context.WithoutCancel(ctx), track)
		if outcome == services.OutcomeFailed {
			reason := "download failed"
			if err != nil {
				reason = err.Error()
			}
			p.logger.Warn("download failed", "track", item.TrackID, "error", reason)
			if markErr := p.store.MarkFailed(item.TrackID, reason); markErr != nil {
				p.logger.Error("failed to record failure", "track", item.TrackID, "error", markErr)
			}
			result.Failed++
			sendProgress(progress, downloadFailedUpdate(i+1, len(eligible), track, err))
			continue
		}

		if err := p.store.MarkDone(item.TrackID); err != nil {
			p.logger.Error("failed to record completion", "track", item.TrackID, "error", err)
		}
		p.archive(ctx, track, outcome)

		switch outcome {
		case services.OutcomeExists:
			p.logger.Info("already downloaded", "track", item.TrackID, "title", item.Title)
			result.Existing++
		default:
			p.logger.Info("downloaded", "track", item.TrackID, "title", item.Title,
				"destination", p.downloader.Destination(track))
			result.Downloaded++
		}
		sendProgress(progress, downloadDoneUpdate(i+1, len(eligible), track, outcome))
	}

	sendProgress(progress, drainDoneUpdate(result))
	return result, nil
}

// Run drains on the given interval until ctx is cancelled.
func (p *Processor) Run(ctx context.Context, interval time.Duration, progress chan<- ProgressUpdate) {
	p.logger.Info("processing backlog", "tool", p.downloader.Name(), "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Drain(ctx, progress); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("backlog pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// archive writes the download to history. Archiving is best-effort and never
// affects backlog state.
func (p *Processor) archive(ctx context.Context, track services.Track, outcome services.Outcome) {
	if p.record == nil {
		return
	}
	dest := p.downloader.Destination(track)
	if err := p.record(context.WithoutCancel(ctx), track, dest, outcome); err != nil {
		p.logger.Warn("failed to archive download", "track", track.ID, "error", err)
	}
}

func itemTrack(item backlog.Item) services.Track {
	return services.Track{
		ID:     item.TrackID,
		Title:  item.Title,
		Artist: item.Artist,
		Album:  item.Album,
		URL:    item.URL,
		URI:    item.URI,
	}
}
