package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openWalletDB opens a private in-memory database with a trimmed-down wallets
// and sessions schema.
func openWalletDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE wallets (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, version INTEGER NOT NULL DEFAULT 1)`,
		`CREATE TABLE sessions (token_hash TEXT PRIMARY KEY, wallet_id TEXT NOT NULL REFERENCES wallets(id))`,
	} {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func createWithSession(ctx context.Context, tx DBTX, id, email string) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO wallets(id, email) VALUES (?, ?)`, id, email); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO sessions(token_hash, wallet_id) VALUES (?, ?)`, "h-"+id, id)
	return err
}

func TestWithTx_CommitsAllStatements(t *testing.T) {
	db := openWalletDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return createWithSession(ctx, tx, "w-1", "a@example.com")
	})
	require.NoError(t, err)
	require.Equal(t, 1, count(t, db, "wallets"))
	require.Equal(t, 1, count(t, db, "sessions"))
}

func TestWithTx_ConstraintViolationRollsBackEarlierWrites(t *testing.T) {
	db := openWalletDB(t)
	ctx := context.Background()

	require.NoError(t, WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		return createWithSession(ctx, tx, "w-1", "a@example.com")
	}))

	err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE wallets SET version = version + 1 WHERE id = ?`, "w-1"); err != nil {
			return err
		}
		return createWithSession(ctx, tx, "w-2", "a@example.com")
	})
	require.Error(t, err)

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM wallets WHERE id = 'w-1'`).Scan(&version))
	require.Equal(t, 1, version)
	require.Equal(t, 1, count(t, db, "wallets"))
}

func TestWithTx_CallbackErrorIsReturned(t *testing.T) {
	db := openWalletDB(t)
	sentinel := errors.New("version conflict")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, createWithSession(ctx, tx, "w-1", "a@example.com"))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 0, count(t, db, "sessions"))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openWalletDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, count(t, db, "wallets"))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, createWithSession(ctx, tx, "w-1", "a@example.com"))
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := openWalletDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}
