// Package wallets declares the server-side repository contract for custodial
// wallet records.
package wallets

import (
	"context"

	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
)

// Repository persists wallet records. Email and address arguments must be
// in canonical lowercase form; lookups that miss return common.ErrorNotFound.
type Repository interface {
	// Create inserts w and fills in ID, Version and timestamps. Unique
	// violations yield common.ErrDuplicateEmail or common.ErrDuplicateAddress.
	Create(ctx context.Context, w *models.Wallet) (*models.Wallet, error)

	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	GetByEmail(ctx context.Context, email string) (*models.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)

	// GetByIDForUpdate reads and row-locks the wallet until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error)

	// UpdatePassword replaces the password hash and PBKDF2 salt.
	UpdatePassword(ctx context.Context, id string, passwordHash string, salt string) error

	// UpdateKeyMaterial replaces the sealed key and IV if the stored version
	// still equals version, and increments it. A stale version yields
	// common.ErrVersionConflict.
	UpdateKeyMaterial(ctx context.Context, id string, encryptedKey string, iv string, version int64) error

	TouchLastLogin(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}
