package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lmojica26/womenhealthytips.com/internal/database"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withDB(cmd, func(db *sql.DB) error {
				return database.RollbackMigrations(db, e.cfg.Database.MigrationsDir, steps, e.logger)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withDB(cmd, func(db *sql.DB) error {
					return database.RunMigrations(db, e.cfg.Database.MigrationsDir, e.logger)
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withDB(cmd, func(db *sql.DB) error {
					version, dirty, err := database.MigrationVersion(db, e.cfg.Database.MigrationsDir)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

// withDB opens the database only, for commands that do not need providers.
func (e *env) withDB(cmd *cobra.Command, fn func(db *sql.DB) error) error {
	dbCfg, err := database.ConfigFrom(e.cfg.Database)
	if err != nil {
		return err
	}
	db, err := database.Connect(cmd.Context(), dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
