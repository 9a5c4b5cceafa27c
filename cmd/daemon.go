package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sidetrack/internal/models"
	"github.com/desertthunder/sidetrack/internal/services"
	"github.com/desertthunder/sidetrack/internal/shared"
	"github.com/desertthunder/sidetrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Run starts the full daemon: the playback watcher and the backlog processor
// on their configured intervals, until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.ValidateListening(); err != nil {
		return err
	}
	if err := r.config.ValidateDownloading(); err != nil {
		return err
	}
	if r.player == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	if _, err := store.Recover(); err != nil {
		return fmt.Errorf("failed to recover stranded items: %w", err)
	}

	record, closeHistory := r.historyRecorder()
	defer closeHistory()

	listener := tasks.NewListener(r.player, store, r.logger)
	processor := r.newProcessor(record)

	daemon := tasks.NewDaemon(listener, processor, r.config.Intervals, r.logger)
	daemon.Run(ctx, nil)
	return nil
}

// Watch runs only the playback watcher. Useful alongside a separate drain
// schedule (e.g. cron) or for building up a queue before the first download.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.ValidateListening(); err != nil {
		return err
	}
	if r.player == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	listener := tasks.NewListener(r.player, store, r.logger)
	daemon := tasks.NewDaemon(listener, nil, r.config.Intervals, r.logger)
	daemon.Run(ctx, nil)
	return nil
}

// Drain processes the backlog. By default runs a single pass and reports the
// result; with --once=false it keeps draining on the configured interval.
func (r *Runner) Drain(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	if err := r.config.ValidateDownloading(); err != nil {
		return err
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	if _, err := store.Recover(); err != nil {
		return fmt.Errorf("failed to recover stranded items: %w", err)
	}

	record, closeHistory := r.historyRecorder()
	defer closeHistory()

	processor := r.newProcessor(record)

	if !cmd.Bool("once") {
		daemon := tasks.NewDaemon(nil, processor, r.config.Intervals, r.logger)
		daemon.Run(ctx, nil)
		return nil
	}

	result, err := processor.Drain(ctx, nil)
	if err != nil {
		return fmt.Errorf("backlog pass failed: %w", err)
	}

	if useJSON {
		return r.writeJSON(result, true)
	}

	if result.Processed == 0 && result.Skipped == 0 {
		return r.writePlain("Backlog is empty, nothing to do\n")
	}
	r.writePlain("Processed %d item(s): %d downloaded, %d already on disk, %d failed",
		result.Processed, result.Downloaded, result.Existing, result.Failed)
	if result.Skipped > 0 {
		r.writePlain(", %d over the attempt limit", result.Skipped)
	}
	return r.writePlain("\n")
}

// newProcessor builds a processor from the runner's config and store.
func (r *Runner) newProcessor(record tasks.RecordFunc) *tasks.Processor {
	processor := tasks.NewProcessor(r.downloader, r.store, record, r.logger)
	if r.config.Downloads.MaxPerRun > 0 {
		processor.MaxPerRun = r.config.Downloads.MaxPerRun
	}
	processor.MaxAttempts = r.config.Downloads.MaxAttempts
	return processor
}

// historyRecorder opens the history database and returns an archive hook plus
// a close function. A broken database disables archiving instead of blocking
// downloads.
func (r *Runner) historyRecorder() (tasks.RecordFunc, func()) {
	db, repo, err := r.openHistory()
	if err != nil {
		r.logger.Warn("history archive disabled", "error", err)
		return nil, func() {}
	}

	record := func(ctx context.Context, track services.Track, destination string, outcome services.Outcome) error {
		return repo.Create(&models.DownloadRecord{
			TrackID:     track.ID,
			Title:       track.Title,
			Artist:      track.Artist,
			Album:       track.Album,
			Destination: destination,
			Outcome:     string(outcome),
		})
	}
	return record, func() { db.Close() }
}
