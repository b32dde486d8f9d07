package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/trackrip/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the template when missing and initializes the history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.logger.Info("config file created", "path", configPath)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	path := r.config.DatabasePath()
	r.logger.Info("initializing database", "path", path)

	db, err := r.openJournal()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("Config: %s\nHistory: %s\n", configPath, path)
}
