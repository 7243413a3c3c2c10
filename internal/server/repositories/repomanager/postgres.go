// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors.
package repomanager

import (
	"github.com/dmitrijs2005/custodykeeper/internal/dbx"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/recoverytokens"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/wallets"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations.
type PostgresRepositoryManager struct{}

// Wallets returns a wallets.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Wallets(db dbx.DBTX) wallets.Repository {
	return wallets.NewPostgresRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// RecoveryTokens returns a recoverytokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RecoveryTokens(db dbx.DBTX) recoverytokens.Repository {
	return recoverytokens.NewPostgresRepository(db)
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
