package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sidetrack/internal/backlog"
	"github.com/desertthunder/sidetrack/internal/repositories"
	"github.com/desertthunder/sidetrack/internal/services"
	"github.com/desertthunder/sidetrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	player     services.Player
	downloader services.Downloader
	logger     *log.Logger
	output     io.Writer
	store      *backlog.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Player     services.Player
	Downloader services.Downloader
	Logger     *log.Logger
	Output     io.Writer
	Store      *backlog.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		player:     opts.Player,
		downloader: opts.Downloader,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, watchCommand, drainCommand, backlogCommand, historyCommand, authCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, used by the TUI to move logging to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openStore opens the backlog document, caching the store across commands.
func (r *Runner) openStore() (*backlog.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	path := r.config.Backlog.Path
	if path == "" {
		path = "backlog.json"
	}

	store, err := backlog.NewStore(path, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open backlog: %w", err)
	}
	r.store = store
	return store, nil
}

// openHistory opens the download history database and applies migrations.
// Callers own the returned handle.
func (r *Runner) openHistory() (*sql.DB, *repositories.HistoryRepository, error) {
	path := r.config.History.Path
	if path == "" {
		path = "history.db"
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.History.MaxOpenConns, r.config.History.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, repositories.NewHistoryRepository(db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
