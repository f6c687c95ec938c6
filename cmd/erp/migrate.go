package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tabula/pkg/db"
	"github.com/dmitrymomot/tabula/pkg/job"
	"github.com/dmitrymomot/tabula/pkg/logger"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations, including the job queue tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := logger.New(cfg.Log)

			pool, err := db.Connect(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool, migrations(), cfg.DB.MigrationsTable, log); err != nil {
				return err
			}
			if err := job.Migrate(ctx, pool, log); err != nil {
				return err
			}
			log.InfoContext(ctx, "migrations applied")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent application migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := logger.New(cfg.Log)

			pool, err := db.Connect(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Rollback(ctx, pool, migrations(), cfg.DB.MigrationsTable, log)
		},
	})
	return cmd
}
