// Package store is the Credential Store: the only boundary between the
// custody services and physical storage.
package store

import (
	"context"

	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/recoverytokens"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/wallets"
)

// Repos is a set of repositories sharing one connection or transaction.
type Repos interface {
	Wallets() wallets.Repository
	Sessions() sessions.Repository
	RecoveryTokens() recoverytokens.Repository
}

// Store exposes auto-committing repositories plus transactional execution.
// Each repository call outside InTx is atomic on its own.
type Store interface {
	Repos

	// InTx runs fn with repositories bound to a single transaction that
	// commits if fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error

	Ping(ctx context.Context) error
}
