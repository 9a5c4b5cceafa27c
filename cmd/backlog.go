package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sidetrack/internal/backlog"
	"github.com/desertthunder/sidetrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// BacklogList prints the queue, optionally filtered by status.
func (r *Runner) BacklogList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	statusFilter := cmd.String("status")

	store, err := r.openStore()
	if err != nil {
		return err
	}

	items := store.Items()
	if statusFilter != "" {
		status, ok := backlog.ParseStatus(statusFilter)
		if !ok {
			return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, statusFilter)
		}
		filtered := items[:0]
		for _, item := range items {
			if item.Status == status {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	if useJSON {
		return r.writeJSON(items, pretty)
	}

	if len(items) == 0 {
		return r.writePlain("Queue is empty\n")
	}

	r.writePlain("Found %d entries:\n\n", len(items))
	for i, item := range items {
		r.writePlain("%d. %s\n", i+1, item.Label())
		r.writePlain("   Track: %s\n", item.TrackID)
		r.writePlain("   Status: %s\n", item.Status)
		if item.AttemptCount > 0 {
			r.writePlain("   Attempts: %d\n", item.AttemptCount)
		}
		if item.LastError != "" {
			r.writePlain("   Last error: %s\n", item.LastError)
		}
		r.writePlain("\n")
	}

	return nil
}

// BacklogShow prints the newest entry for a track.
func (r *Runner) BacklogShow(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track-id argument is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	items := store.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].TrackID != trackID {
			continue
		}
		item := items[i]

		if cmd.Bool("json") {
			return r.writeJSON(item, true)
		}

		r.writePlain("Track: %s\n", item.TrackID)
		r.writePlain("Title: %s\n", item.Title)
		if item.Artist != "" {
			r.writePlain("Artist: %s\n", item.Artist)
		}
		if item.Album != "" {
			r.writePlain("Album: %s\n", item.Album)
		}
		r.writePlain("Status: %s\n", item.Status)
		r.writePlain("Added: %s\n", item.AddedAt.Format("2006-01-02 15:04:05"))
		r.writePlain("Attempts: %d\n", item.AttemptCount)
		if item.LastError != "" {
			r.writePlain("Last error: %s\n", item.LastError)
		}
		if item.CompletedAt != nil {
			r.writePlain("Completed: %s\n", item.CompletedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	return fmt.Errorf("%w: no entry for track %s", shared.ErrItemNotFound, trackID)
}

// BacklogRetry moves a failed entry back to pending.
func (r *Runner) BacklogRetry(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track-id argument is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	if err := store.Retry(trackID); err != nil {
		return err
	}
	return r.writePlain("✓ Track %s queued for retry\n", trackID)
}

// BacklogRemove drops the newest entry for a track.
func (r *Runner) BacklogRemove(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track-id argument is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	if err := store.Remove(trackID); err != nil {
		return err
	}
	return r.writePlain("✓ Track %s removed from the queue\n", trackID)
}

// BacklogClear empties the queue document.
func (r *Runner) BacklogClear(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	if pending := store.Len(); pending > 0 && !cmd.Bool("force") {
		return fmt.Errorf("%w: %d entries still queued, pass --force to clear anyway",
			shared.ErrInvalidArgument, pending)
	}

	if err := store.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Queue cleared\n")
}

// History lists archived downloads, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repo.List(int(limit))
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(records, pretty)
	}

	if len(records) == 0 {
		return r.writePlain("No downloads recorded yet\n")
	}

	r.writePlain("Found %d download(s):\n\n", len(records))
	for i, record := range records {
		r.writePlain("%d. %s - %s\n", i+1, record.Artist, record.Title)
		r.writePlain("   Track: %s\n", record.TrackID)
		r.writePlain("   Destination: %s\n", record.Destination)
		r.writePlain("   Outcome: %s\n", record.Outcome)
		r.writePlain("   Downloaded: %s\n", record.DownloadedAt.Format("2006-01-02 15:04:05"))
		r.writePlain("\n")
	}

	return nil
}
