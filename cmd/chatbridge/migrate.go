package main

import (
	"github.com/spf13/cobra"

	"github.com/memohai/chatbridge/internal/db"
	"github.com/memohai/chatbridge/internal/logger"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
		Example: `  chatbridge migrate up
  chatbridge migrate down --config /etc/chatbridge/config.toml`,
	}
	for _, direction := range []string{db.MigrateUp, db.MigrateDown} {
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: "Run every migration " + direction,
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := loadConfig(*configPath)
				if err != nil {
					return err
				}
				logger.Init(cfg.Log.Level, cfg.Log.Format)
				return db.Migrate(logger.L, cfg.Postgres, direction)
			},
		})
	}
	return cmd
}
