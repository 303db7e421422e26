package main

import (
	"github.com/spf13/cobra"

	idb "specialization_alert_bot/internal/infra/database"
	"specialization_alert_bot/internal/infra/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := idb.RunMigrations(db); err != nil {
				return err
			}
			logger.Log.Info("Migrations applied")
			return nil
		},
	}
}
