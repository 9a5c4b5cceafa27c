package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/sidetrack/internal/backlog"
	"github.com/desertthunder/sidetrack/internal/shared"
	tu "github.com/desertthunder/sidetrack/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner builds a runner over a temp backlog and history database,
// capturing output in a buffer.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Backlog.Path = filepath.Join(dir, "backlog.json")
	config.History.Path = filepath.Join(dir, "history.db")
	config.Downloads.Root = filepath.Join(dir, "music")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		Downloader: tu.NewMockDownloader(),
		Output:     output,
	})
	return runner, output
}

// run invokes the CLI the way main does, against the runner's command tree.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "sidetrack", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"sidetrack"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got, want := output.String(), `{"key":"value"}`+"\n"; got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("openStore", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		store, err := runner.openStore()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := os.Stat(runner.config.Backlog.Path); err != nil {
			t.Errorf("backlog document should exist: %v", err)
		}

		again, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		if again != store {
			t.Error("openStore should reuse the same store")
		}
	})
}

func TestBacklogCommands(t *testing.T) {
	t.Run("list empty queue", func(t *testing.T) {
		runner, output := newTestRunner(t)

		if err := run(t, runner, "backlog", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Queue is empty") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("list as JSON", func(t *testing.T) {
		runner, output := newTestRunner(t)
		store, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.Enqueue(backlog.Item{TrackID: "t1", Title: "Song", Artist: "Band"}); err != nil {
			t.Fatal(err)
		}

		if err := run(t, runner, "backlog", "list", "--json", "--pretty"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{`"track_id": "t1"`, `"status": "pending"`} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("output missing %q: %s", want, output.String())
			}
		}
	})

	t.Run("show missing track", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		err := run(t, runner, "backlog", "show", "nope")
		if !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("retry and remove", func(t *testing.T) {
		runner, output := newTestRunner(t)
		store, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.Enqueue(backlog.Item{TrackID: "t1", Title: "Song"}); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkInProgress("t1"); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkFailed("t1", "boom"); err != nil {
			t.Fatal(err)
		}

		if err := run(t, runner, "backlog", "retry", "t1"); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if store.Items()[0].Status != backlog.StatusPending {
			t.Error("retry should move the entry back to pending")
		}

		if err := run(t, runner, "backlog", "remove", "t1"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if len(store.Items()) != 0 {
			t.Error("remove should drop the entry")
		}
		if !strings.Contains(output.String(), "removed") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("clear requires force on non-empty queue", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		store, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.Enqueue(backlog.Item{TrackID: "t1", Title: "Song"}); err != nil {
			t.Fatal(err)
		}

		if err := run(t, runner, "backlog", "clear"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := run(t, runner, "backlog", "clear", "--force"); err != nil {
			t.Fatalf("forced clear failed: %v", err)
		}
		if len(store.Items()) != 0 {
			t.Error("queue should be empty after forced clear")
		}
	})
}

func TestDrainCommand(t *testing.T) {
	t.Run("single pass downloads queued tracks", func(t *testing.T) {
		runner, output := newTestRunner(t)
		runner.config.Credentials.Downloading.Username = "user"
		runner.config.Credentials.Downloading.Password = "pass"

		store, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		for _, id := range []string{"a", "b"} {
			if _, err := store.Enqueue(backlog.Item{TrackID: id, Title: "Track " + id}); err != nil {
				t.Fatal(err)
			}
		}

		if err := run(t, runner, "drain"); err != nil {
			t.Fatalf("drain failed: %v", err)
		}
		if !strings.Contains(output.String(), "2 downloaded") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if store.Len() != 0 {
			t.Errorf("queue should be drained, %d left", store.Len())
		}
	})

	t.Run("requeues stranded items before the pass", func(t *testing.T) {
		runner, output := newTestRunner(t)
		runner.config.Credentials.Downloading.Username = "user"
		runner.config.Credentials.Downloading.Password = "pass"

		store, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.Enqueue(backlog.Item{TrackID: "a", Title: "Song"}); err != nil {
			t.Fatal(err)
		}
		// An item left in_progress by a crashed run.
		if err := store.MarkInProgress("a"); err != nil {
			t.Fatal(err)
		}

		if err := run(t, runner, "drain"); err != nil {
			t.Fatalf("drain failed: %v", err)
		}
		if !strings.Contains(output.String(), "1 downloaded") {
			t.Errorf("stranded item should be requeued and downloaded: %s", output.String())
		}
		if store.Items()[0].Status != backlog.StatusDone {
			t.Errorf("expected done, got %s", store.Items()[0].Status)
		}
	})

	t.Run("requires downloading credentials", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		if err := run(t, runner, "drain"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("records downloads in history", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		runner.config.Credentials.Downloading.Username = "user"
		runner.config.Credentials.Downloading.Password = "pass"

		store, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.Enqueue(backlog.Item{TrackID: "a", Title: "Song", Artist: "Band"}); err != nil {
			t.Fatal(err)
		}

		if err := run(t, runner, "drain"); err != nil {
			t.Fatalf("drain failed: %v", err)
		}

		db, repo, err := runner.openHistory()
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		records, err := repo.List(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || records[0].TrackID != "a" {
			t.Errorf("expected one archived download, got %+v", records)
		}
	})
}
