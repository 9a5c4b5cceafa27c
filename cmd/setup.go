package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sidetrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file and initializes the history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config written to %s\n", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	}
	r.config = config

	if _, err := r.openStore(); err != nil {
		return err
	}
	r.writePlain("✓ Backlog document ready at %s\n", config.Backlog.Path)

	r.logger.Info("initializing history database", "path", config.History.Path)
	db, _, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()
	r.writePlain("✓ History database ready at %s\n", config.History.Path)

	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in [credentials] in %s\n", configPath)
	r.writePlain("2. Run 'sidetrack auth' to connect the listening account\n")
	r.writePlain("3. Run 'sidetrack run' to start the daemon\n")

	return nil
}
