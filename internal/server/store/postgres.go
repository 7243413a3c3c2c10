package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/custodykeeper/internal/dbx"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/recoverytokens"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/wallets"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store on a pgx-backed *sql.DB.
type PostgresStore struct {
	db *sql.DB
	m  repomanager.RepositoryManager
}

// Open connects to PostgreSQL through the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps db. The schema is expected to be migrated already.
func NewPostgresStore(db *sql.DB, m repomanager.RepositoryManager) *PostgresStore {
	return &PostgresStore{db: db, m: m}
}

func (s *PostgresStore) Wallets() wallets.Repository {
	return s.m.Wallets(s.db)
}

func (s *PostgresStore) Sessions() sessions.Repository {
	return s.m.Sessions(s.db)
}

func (s *PostgresStore) RecoveryTokens() recoverytokens.Repository {
	return s.m.RecoveryTokens(s.db)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &txRepos{tx: tx, m: s.m})
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type txRepos struct {
	tx dbx.DBTX
	m  repomanager.RepositoryManager
}

func (r *txRepos) Wallets() wallets.Repository {
	return r.m.Wallets(r.tx)
}

func (r *txRepos) Sessions() sessions.Repository {
	return r.m.Sessions(r.tx)
}

func (r *txRepos) RecoveryTokens() recoverytokens.Repository {
	return r.m.RecoveryTokens(r.tx)
}
