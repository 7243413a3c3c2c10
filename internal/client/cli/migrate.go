package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/custodykeeper/internal/server/migrations"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
	"github.com/spf13/cobra"
)

// Seams for tests.
var (
	openDB        = store.Open
	migrateUp     = migrations.Up
	migrateStatus = migrations.Status
)

func (a *App) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the custody database schema (uses CUSTODY_DATABASE_DSN)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
					if err := migrateUp(ctx, db); err != nil {
						return err
					}
					fmt.Fprintln(a.out, "schema up to date")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDB(cmd.Context(), migrateStatus)
			},
		},
	)
	return cmd
}

func (a *App) withDB(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	if a.config.DatabaseDSN == "" {
		return errors.New("CUSTODY_DATABASE_DSN is not set")
	}
	db, err := openDB(a.config.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}
