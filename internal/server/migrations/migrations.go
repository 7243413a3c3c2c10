// Package migrations embeds the goose SQL migrations for the custody schema.
// They are applied at deploy time through custodyctl; the server only checks
// that the schema is current.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// gooseStatusContext is a seam for testing goose.StatusContext.
var gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.StatusContext(ctx, db, dir)
}

func setup() error {
	goose.SetBaseFS(Migrations)
	return goose.SetDialect("pgx")
}

// Up applies all pending migrations.
func Up(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// Status prints the state of every migration through goose's logger.
func Status(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return gooseStatusContext(ctx, db, ".")
}

// LatestVersion returns the highest version among the embedded migrations.
func LatestVersion() (int64, error) {
	names, err := fs.Glob(Migrations, "*.sql")
	if err != nil {
		return 0, err
	}

	var latest int64
	for _, name := range names {
		v, err := goose.NumericComponent(name)
		if err != nil {
			return 0, fmt.Errorf("migration %s: %w", name, err)
		}
		latest = max(latest, v)
	}
	return latest, nil
}

// Check verifies that the database schema is at LatestVersion without
// touching it. A missing version table or an outdated schema yields
// common.ErrStoreUnavailable.
func Check(ctx context.Context, db *sql.DB) error {
	want, err := LatestVersion()
	if err != nil {
		return err
	}

	var got int64
	query := `SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`
	if err := db.QueryRowContext(ctx, query).Scan(&got); err != nil {
		return fmt.Errorf("%w: schema version: %v", common.ErrStoreUnavailable, err)
	}

	if got < want {
		return fmt.Errorf("%w: schema version %d, want %d (run custodyctl migrate up)", common.ErrStoreUnavailable, got, want)
	}
	return nil
}
