package main

import (
	"fmt"

	"github.com/dongibuyeo/dongibuyeo/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|redo|reset]",
		Short:     "Run database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "redo", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			db, err := database.OpenRaw(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db, command); err != nil {
				return err
			}
			logger.Info("migration finished", "command", command, "db", cfg.DBPath)
			return nil
		},
	}
}
