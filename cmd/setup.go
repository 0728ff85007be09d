package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"monthify/internal/shared"
)

// Setup writes a starter config file and initializes the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("created configuration file", "path", path)

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	r.logger.Info("database initialized", "path", r.config.Database.Path)

	r.writePlain("Setup complete.\n")
	r.writePlain("Edit %s with your Spotify client credentials (or set CLIENT_ID and CLIENT_SECRET), then run 'monthify auth'.\n", path)
	return nil
}
