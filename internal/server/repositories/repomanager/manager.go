package repomanager

import (
	"github.com/dmitrijs2005/custodykeeper/internal/dbx"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/recoverytokens"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/wallets"
)

// RepositoryManager binds repositories to a connection or a transaction.
type RepositoryManager interface {
	Wallets(db dbx.DBTX) wallets.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	RecoveryTokens(db dbx.DBTX) recoverytokens.Repository
}
