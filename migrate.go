package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/migrations"
	"github.com/coldconnect/coldconnect-engine/pkg/database"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
)

func createMigrateCommand() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  "Apply all pending schema migrations, or roll back the given number of migrations with --down.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			sqlDB, err := sql.Open("pgx", cfg.Database.URL())
			if err != nil {
				return fmt.Errorf("failed to open sql connection: %w", err)
			}
			defer sqlDB.Close()

			if err := sqlDB.PingContext(cmd.Context()); err != nil {
				logger.Error("Database unreachable",
					zap.String("url", logging.SanitizeConnectionString(cfg.Database.URL())),
					zap.String("error", logging.SanitizeError(err)))
				return fmt.Errorf("failed to reach database: %w", err)
			}

			if down > 0 {
				return database.RollbackMigrations(sqlDB, migrations.FS, down, logger)
			}
			return database.RunMigrations(sqlDB, migrations.FS, logger)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "Number of migrations to roll back instead of migrating up")
	return cmd
}
