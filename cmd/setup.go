package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/readlog/internal/shared"
)

// SetupDatabase creates the config file if needed, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	return r.writePlain("✓ Database ready at %s (%d migrations applied)\n", config.Database.Path, applied)
}

// MigrationsStatus lists every known migration and whether it has been applied.
func (r *Runner) MigrationsStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(states, true)
	}

	r.writePlainHeader("Migrations")
	for _, s := range states {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("%s %03d %s\n", mark, s.Version, s.Name)
	}
	return nil
}

// MigrationsRollback reverts the most recently applied migration.
func (r *Runner) MigrationsRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	r.logger.Info("rolled back migration", "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back the latest migration\n")
}
