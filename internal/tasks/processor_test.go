package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/sidetrack/internal/backlog"
	"github.com/desertthunder/sidetrack/internal/services"
	tu "github.com/desertthunder/sidetrack/internal/testing"
)

func seedBacklog(t *testing.T, store *backlog.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		added, err := store.Enqueue(backlog.Item{TrackID: id, Title: "Track " + id})
		if err != nil || !added {
			t.Fatalf("seed %s failed: added=%v err=%v", id, added, err)
		}
	}
}

func TestProcessor(t *testing.T) {
	t.Run("Drains In Insertion Order", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a", "b", "c")
		downloader := tu.NewMockDownloader()
		proc := NewProcessor(downloader, store, nil, nil)

		result, err := proc.Drain(context.Background(), nil)
		if err != nil {
			t.Fatalf("drain failed: %v", err)
		}
		if result.Processed != 3 || result.Downloaded != 3 {
			t.Errorf("unexpected result: %+v", result)
		}

		got := downloader.Downloaded()
		for i, want := range []string{"a", "b", "c"} {
			if got[i] != want {
				t.Errorf("position %d: expected %s, got %s", i, want, got[i])
			}
		}
		if store.Len() != 0 {
			t.Errorf("all items should be terminal, %d remain", store.Len())
		}
	})

	t.Run("One Failure Does Not Abort The Pass", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a", "b", "c")
		downloader := tu.NewMockDownloader()
		downloader.Errs["b"] = errors.New("no premium")
		proc := NewProcessor(downloader, store, nil, nil)

		result, err := proc.Drain(context.Background(), nil)
		if err != nil {
			t.Fatalf("drain failed: %v", err)
		}
		if result.Downloaded != 2 || result.Failed != 1 {
			t.Errorf("unexpected result: %+v", result)
		}

		if got := len(downloader.Downloaded()); got != 3 {
			t.Errorf("all three items should be attempted, got %d", got)
		}

		var failed *backlog.Item
		for _, item := range store.Items() {
			if item.TrackID == "b" {
				failed = &item
				break
			}
		}
		if failed == nil || failed.Status != backlog.StatusFailed {
			t.Fatalf("item b should be failed, got %+v", failed)
		}
		if failed.LastError == "" {
			t.Error("failed item should carry the error reason")
		}
		if failed.AttemptCount != 1 {
			t.Errorf("expected one attempt, got %d", failed.AttemptCount)
		}
	})

	t.Run("Failed Items Are Retried Next Pass", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a")
		downloader := tu.NewMockDownloader()
		downloader.Errs["a"] = errors.New("transient")
		proc := NewProcessor(downloader, store, nil, nil)

		if _, err := proc.Drain(context.Background(), nil); err != nil {
			t.Fatal(err)
		}

		delete(downloader.Errs, "a")
		result, err := proc.Drain(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Downloaded != 1 {
			t.Errorf("retry should succeed, got %+v", result)
		}
		if store.Items()[0].AttemptCount != 2 {
			t.Errorf("expected two attempts, got %d", store.Items()[0].AttemptCount)
		}
	})

	t.Run("Existing Files Are Terminal", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a")
		downloader := tu.NewMockDownloader()
		downloader.Outcomes["a"] = services.OutcomeExists
		proc := NewProcessor(downloader, store, nil, nil)

		result, err := proc.Drain(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Existing != 1 || result.Downloaded != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if store.Items()[0].Status != backlog.StatusDone {
			t.Error("existing file should mark the item done")
		}
	})

	t.Run("Honors MaxPerRun", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a", "b", "c", "d")
		downloader := tu.NewMockDownloader()
		proc := NewProcessor(downloader, store, nil, nil)
		proc.MaxPerRun = 2

		result, err := proc.Drain(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Processed != 2 {
			t.Errorf("expected 2 processed, got %d", result.Processed)
		}
		if store.Len() != 2 {
			t.Errorf("expected 2 items left, got %d", store.Len())
		}
	})

	t.Run("Honors MaxAttempts", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a")
		downloader := tu.NewMockDownloader()
		downloader.Errs["a"] = errors.New("permanent")
		proc := NewProcessor(downloader, store, nil, nil)
		proc.MaxAttempts = 2

		for range 3 {
			if _, err := proc.Drain(context.Background(), nil); err != nil {
				t.Fatal(err)
			}
		}

		if got := len(downloader.Downloaded()); got != 2 {
			t.Errorf("expected 2 attempts before the limit, got %d", got)
		}

		result, err := proc.Drain(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Skipped != 1 || result.Processed != 0 {
			t.Errorf("item over the limit should be skipped, got %+v", result)
		}
	})

	t.Run("Cancellation Stops Between Items", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a", "b")
		downloader := tu.NewMockDownloader()
		proc := NewProcessor(downloader, store, nil, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := proc.Drain(ctx, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result.Processed != 0 {
			t.Errorf("no items should be attempted after cancel, got %+v", result)
		}
		if store.Len() != 2 {
			t.Error("items should stay queued for the next run")
		}
	})

	t.Run("Archives Completed Downloads", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a")
		downloader := tu.NewMockDownloader()

		var archived []string
		record := func(ctx context.Context, track services.Track, destination string, outcome services.Outcome) error {
			archived = append(archived, track.ID+":"+string(outcome))
			return nil
		}
		proc := NewProcessor(downloader, store, record, nil)

		if _, err := proc.Drain(context.Background(), nil); err != nil {
			t.Fatal(err)
		}
		if len(archived) != 1 || archived[0] != "a:downloaded" {
			t.Errorf("unexpected archive calls: %v", archived)
		}
	})

	t.Run("Archive Errors Do Not Affect The Backlog", func(t *testing.T) {
		store := newTestBacklog(t)
		seedBacklog(t, store, "a")
		downloader := tu.NewMockDownloader()
		record := func(ctx context.Context, track services.Track, destination string, outcome services.Outcome) error {
			return errors.New("history database unavailable")
		}
		proc := NewProcessor(downloader, store, record, nil)

		result, err := proc.Drain(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Downloaded != 1 {
			t.Errorf("download should still count, got %+v", result)
		}
		if store.Items()[0].Status != backlog.StatusDone {
			t.Error("item should be done despite the archive failure")
		}
	})
}
