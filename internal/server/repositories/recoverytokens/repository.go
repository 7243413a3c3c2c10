// Package recoverytokens declares the server-side repository contract for
// single-use recovery tokens.
package recoverytokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
)

// Repository persists recovery tokens keyed by token hash.
type Repository interface {
	// Create stores t and fills in ID and CreatedAt.
	Create(ctx context.Context, t *models.RecoveryToken) error

	// FindValid returns the token only if it is unused and expires after
	// now; otherwise common.ErrorNotFound.
	FindValid(ctx context.Context, tokenHash string, now time.Time) (*models.RecoveryToken, error)

	// MarkUsed flips used from false to true. If the token was already used
	// it returns common.ErrorNotFound, so only one caller can ever win.
	MarkUsed(ctx context.Context, id string) error

	// InvalidateForWallet marks all unused tokens of the wallet as used.
	InvalidateForWallet(ctx context.Context, walletID string) (int64, error)

	// PurgeExpired removes tokens that are used or expired at or before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
