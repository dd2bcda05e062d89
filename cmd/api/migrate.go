package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sangkips/recibo-api/internal/config"
	"github.com/sangkips/recibo-api/internal/infrastructure/database"
	"github.com/sangkips/recibo-api/internal/logger"
)

func migrateCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.New(os.Stdout, cfg.App.Env, cfg.App.LogLevel)

			db, err := database.Open(&cfg.Database, cfg.App.Debug)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("Migrations applied", "driver", cfg.Database.Driver)

			if seed {
				if err := database.SeedDefaultData(db); err != nil {
					return fmt.Errorf("failed to seed default data: %w", err)
				}
				log.Info("Default filters seeded")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", true, "seed default menu filters when the table is empty")
	return cmd
}
