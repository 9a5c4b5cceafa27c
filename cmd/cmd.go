// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// runCommand starts the full daemon: playback watcher plus backlog processor.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run the daemon (watch playback and process the backlog)",
		Action: r.Run,
	}
}

// watchCommand runs only the playback watcher.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Watch playback and queue tracks without downloading",
		Action: r.Watch,
	}
}

// drainCommand runs the backlog processor.
func drainCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "drain",
		Usage: "Process the backlog through the download tool",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single pass and exit",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the pass summary as JSON",
			},
		},
		Action: r.Drain,
	}
}

// backlogCommand groups operator actions over the queue document.
func backlogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "backlog",
		Aliases: []string{"queue"},
		Usage:   "Inspect and manage the download queue",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List queue entries",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (pending, in_progress, done, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.BacklogList,
			},
			{
				Name:  "show",
				Usage: "Show the newest entry for a track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track-id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BacklogShow,
			},
			{
				Name:  "retry",
				Usage: "Move a failed entry back to pending",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track-id"},
				},
				Action: r.BacklogRetry,
			},
			{
				Name:  "remove",
				Usage: "Remove the newest entry for a track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track-id"},
				},
				Action: r.BacklogRemove,
			},
			{
				Name:  "clear",
				Usage: "Empty the queue document",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Skip the non-empty queue check",
					},
				},
				Action: r.BacklogClear,
			},
		},
	}
}

// historyCommand reports archived downloads.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show archived downloads",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.History,
	}
}

// authCommand runs the OAuth flow for the listening account.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize the listening account with Spotify",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Auth,
	}
}

// setupCommand writes the starter config and initializes the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter config and initialize the history database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for the interactive queue monitor.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive queue monitor",
		Action:  r.TUI,
	}
}
