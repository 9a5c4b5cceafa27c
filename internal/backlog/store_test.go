package backlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/sidetrack/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backlog.json")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func mustEnqueue(t *testing.T, store *Store, id, title string) {
	t.Helper()
	added, err := store.Enqueue(Item{TrackID: id, Title: title})
	if err != nil {
		t.Fatalf("enqueue %s failed: %v", id, err)
	}
	if !added {
		t.Fatalf("enqueue %s should have added a new item", id)
	}
}

func TestStore(t *testing.T) {
	t.Run("FirstRunCreatesEmptyDocument", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "backlog.json")
		store, err := NewStore(path, nil)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("expected empty store, got %d items", store.Len())
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("document should exist after first run: %v", err)
		}
	})

	t.Run("EnqueueDedupsNonTerminal", func(t *testing.T) {
		store := newTestStore(t)
		mustEnqueue(t, store, "t1", "Song")

		added, err := store.Enqueue(Item{TrackID: "t1", Title: "Song"})
		if err != nil {
			t.Fatalf("second enqueue failed: %v", err)
		}
		if added {
			t.Error("enqueue of a pending track should be a no-op")
		}

		if err := store.MarkInProgress("t1"); err != nil {
			t.Fatalf("mark in progress failed: %v", err)
		}
		if added, _ := store.Enqueue(Item{TrackID: "t1"}); added {
			t.Error("enqueue of an in_progress track should be a no-op")
		}

		if err := store.MarkFailed("t1", "network blip"); err != nil {
			t.Fatalf("mark failed failed: %v", err)
		}
		if added, _ := store.Enqueue(Item{TrackID: "t1"}); added {
			t.Error("enqueue of a failed track should be a no-op")
		}

		if got := len(store.Items()); got != 1 {
			t.Errorf("expected exactly one entry, got %d", got)
		}
	})

	t.Run("ReenqueueAfterDone", func(t *testing.T) {
		store := newTestStore(t)
		mustEnqueue(t, store, "t1", "Song")
		if err := store.MarkInProgress("t1"); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkDone("t1"); err != nil {
			t.Fatal(err)
		}

		added, err := store.Enqueue(Item{TrackID: "t1", Title: "Song"})
		if err != nil {
			t.Fatalf("re-enqueue failed: %v", err)
		}
		if !added {
			t.Error("a done track should be enqueueable again")
		}
		if got := len(store.Items()); got != 2 {
			t.Errorf("expected two entries, got %d", got)
		}
	})

	t.Run("ListPendingPreservesInsertionOrder", func(t *testing.T) {
		store := newTestStore(t)
		for _, id := range []string{"x", "y", "z"} {
			mustEnqueue(t, store, id, id)
		}

		pending := store.ListPending()
		if len(pending) != 3 {
			t.Fatalf("expected 3 pending, got %d", len(pending))
		}
		for i, want := range []string{"x", "y", "z"} {
			if pending[i].TrackID != want {
				t.Errorf("position %d: expected %s, got %s", i, want, pending[i].TrackID)
			}
		}
	})

	t.Run("ListEligibleIncludesFailed", func(t *testing.T) {
		store := newTestStore(t)
		mustEnqueue(t, store, "a", "A")
		mustEnqueue(t, store, "b", "B")

		if err := store.MarkInProgress("a"); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkFailed("a", "boom"); err != nil {
			t.Fatal(err)
		}

		eligible := store.ListEligible()
		if len(eligible) != 2 {
			t.Fatalf("expected 2 eligible, got %d", len(eligible))
		}
		if eligible[0].TrackID != "a" || eligible[1].TrackID != "b" {
			t.Errorf("eligible order should be insertion order, got %s, %s",
				eligible[0].TrackID, eligible[1].TrackID)
		}
		if store.ListPending()[0].TrackID != "b" {
			t.Error("failed item should not appear in ListPending")
		}
	})

	t.Run("Transitions", func(t *testing.T) {
		store := newTestStore(t)
		mustEnqueue(t, store, "t1", "Song")

		if err := store.MarkInProgress("t1"); err != nil {
			t.Fatal(err)
		}
		item := store.Items()[0]
		if item.Status != StatusInProgress {
			t.Errorf("expected in_progress, got %s", item.Status)
		}
		if item.AttemptCount != 1 {
			t.Errorf("expected attempt count 1, got %d", item.AttemptCount)
		}

		if err := store.MarkFailed("t1", "no premium"); err != nil {
			t.Fatal(err)
		}
		item = store.Items()[0]
		if item.Status != StatusFailed || item.LastError != "no premium" {
			t.Errorf("unexpected failed state: %+v", item)
		}

		if err := store.MarkInProgress("t1"); err != nil {
			t.Fatal(err)
		}
		if got := store.Items()[0].AttemptCount; got != 2 {
			t.Errorf("expected attempt count 2, got %d", got)
		}

		if err := store.MarkDone("t1"); err != nil {
			t.Fatal(err)
		}
		item = store.Items()[0]
		if item.Status != StatusDone {
			t.Errorf("expected done, got %s", item.Status)
		}
		if item.LastError != "" {
			t.Error("done should clear last_error")
		}
		if item.CompletedAt == nil {
			t.Error("done should set completed_at")
		}

		if err := store.MarkDone("missing"); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("SurvivesRestart", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backlog.json")
		store, err := NewStore(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		mustEnqueue(t, store, "t1", "Song")

		// Simulate a crash-and-restart by opening a fresh store on the
		// same document.
		reopened, err := NewStore(path, nil)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		pending := reopened.ListPending()
		if len(pending) != 1 || pending[0].TrackID != "t1" {
			t.Errorf("enqueued item should survive restart, got %+v", pending)
		}
	})

	t.Run("RecoverRequeuesStrandedInProgress", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backlog.json")
		store, err := NewStore(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		mustEnqueue(t, store, "t1", "Song")
		if err := store.MarkInProgress("t1"); err != nil {
			t.Fatal(err)
		}

		// Simulate a hard kill mid-download: reopen and recover.
		reopened, err := NewStore(path, nil)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		recovered, err := reopened.Recover()
		if err != nil {
			t.Fatalf("recover failed: %v", err)
		}
		if recovered != 1 {
			t.Errorf("expected 1 recovered item, got %d", recovered)
		}

		item := reopened.Items()[0]
		if item.Status != StatusPending {
			t.Errorf("stranded in_progress item should be pending after recovery, got %s", item.Status)
		}
		if item.LastError != RecoveredNote {
			t.Errorf("expected recovery note, got %q", item.LastError)
		}
		if len(reopened.ListEligible()) != 1 {
			t.Error("recovered item should be retry-eligible")
		}
	})

	t.Run("ViewersLeaveActiveDownloadsAlone", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backlog.json")
		store, err := NewStore(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		mustEnqueue(t, store, "t1", "Song")
		if err := store.MarkInProgress("t1"); err != nil {
			t.Fatal(err)
		}

		// A second process (the TUI, or backlog list) opens and refreshes
		// its view while the download is still running.
		viewer, err := NewStore(path, nil)
		if err != nil {
			t.Fatalf("viewer open failed: %v", err)
		}
		if err := viewer.Reload(); err != nil {
			t.Fatalf("viewer reload failed: %v", err)
		}
		if got := viewer.Items()[0].Status; got != StatusInProgress {
			t.Errorf("viewer should see the item in_progress, got %s", got)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), string(StatusInProgress)) {
			t.Error("active download should stay in_progress on disk")
		}
		if strings.Contains(string(data), RecoveredNote) {
			t.Errorf("viewer must not rewrite an active download: %s", data)
		}

		if err := store.MarkDone("t1"); err != nil {
			t.Errorf("download owner should still complete the item: %v", err)
		}
	})

	t.Run("MutationsPickUpExternalWrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backlog.json")
		first, err := NewStore(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		second, err := NewStore(path, nil)
		if err != nil {
			t.Fatal(err)
		}

		// Writes through two handles on the same document must not lose
		// each other's entries.
		mustEnqueue(t, first, "a", "A")
		mustEnqueue(t, second, "b", "B")

		if err := first.Reload(); err != nil {
			t.Fatal(err)
		}
		items := first.Items()
		if len(items) != 2 || items[0].TrackID != "a" || items[1].TrackID != "b" {
			t.Errorf("expected both entries in order, got %+v", items)
		}

		if added, _ := second.Enqueue(Item{TrackID: "a"}); added {
			t.Error("dedup should see the other handle's pending entry")
		}
	})

	t.Run("CorruptDocumentIsFatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backlog.json")
		if err := os.WriteFile(path, []byte(`[{"track_id": "t1", truncated`), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := NewStore(path, nil)
		if !errors.Is(err, shared.ErrBacklogCorrupt) {
			t.Errorf("expected ErrBacklogCorrupt, got %v", err)
		}
	})

	t.Run("FailedWriteLeavesCommittedDocumentIntact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backlog.json")
		store, err := NewStore(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		mustEnqueue(t, store, "t1", "Song")

		// Block the temp file slot so the next write cannot land.
		if err := os.Mkdir(path+".tmp", 0755); err != nil {
			t.Fatal(err)
		}

		if _, err := store.Enqueue(Item{TrackID: "t2", Title: "Other"}); err == nil {
			t.Fatal("enqueue should fail when the document cannot be written")
		}

		if err := os.Remove(path + ".tmp"); err != nil {
			t.Fatal(err)
		}
		if err := store.Reload(); err != nil {
			t.Fatalf("reload after failed write: %v", err)
		}

		items := store.Items()
		if len(items) != 1 || items[0].TrackID != "t1" {
			t.Errorf("previously committed document should be intact, got %+v", items)
		}
	})

	t.Run("OperatorCommands", func(t *testing.T) {
		store := newTestStore(t)
		mustEnqueue(t, store, "a", "A")
		mustEnqueue(t, store, "b", "B")

		if err := store.MarkInProgress("a"); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkFailed("a", "boom"); err != nil {
			t.Fatal(err)
		}
		if err := store.Retry("a"); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if store.Items()[0].Status != StatusPending {
			t.Error("retry should move a failed item back to pending")
		}
		if err := store.Retry("b"); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("retry of a pending item should report not found, got %v", err)
		}

		if err := store.Remove("b"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if len(store.Items()) != 1 {
			t.Error("remove should drop the entry")
		}

		if err := store.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if len(store.Items()) != 0 {
			t.Error("clear should empty the document")
		}
	})
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"pending", StatusPending, true},
		{" In_Progress ", StatusInProgress, true},
		{"done", StatusDone, true},
		{"failed", StatusFailed, true},
		{"", "", false},
		{"bogus", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
