// Package sessions declares the server-side repository contract for login
// sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
)

// Repository persists sessions keyed by token hash.
type Repository interface {
	Create(ctx context.Context, s *models.Session) error

	// FindValid returns the session only if it expires after now and its
	// wallet is active; otherwise common.ErrorNotFound.
	FindValid(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error)

	// Delete removes one session. Deleting a missing session is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByWallet removes every session of the wallet.
	DeleteByWallet(ctx context.Context, walletID string) (int64, error)

	// PurgeExpired removes sessions that expired at or before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
