// Package models defines server-side data models persisted in the database.
package models

import "time"

// Wallet is the durable record of one custodial wallet. Email and Address
// are always stored in canonical lowercase form.
type Wallet struct {
	ID      string
	Address string
	Email   string

	// PasswordHash is a bcrypt hash carrying its own salt.
	PasswordHash string
	// Salt (hex) feeds PBKDF2 only.
	Salt string
	// EncryptedPrivateKey is "hex(ciphertext):hex(tag)" under the password-derived key.
	EncryptedPrivateKey string
	// EncryptionIV is the hex IV used for EncryptedPrivateKey.
	EncryptionIV string
	// EscrowedPrivateKey is the private key sealed by the operator escrow.
	EscrowedPrivateKey string

	Active bool
	// Version increments on every key material change.
	Version int64

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// LastLogin returns the last login time, or CreatedAt if the wallet has
// never been logged into.
func (w *Wallet) LastLogin() time.Time {
	if w.LastLoginAt == nil {
		return w.CreatedAt
	}
	return *w.LastLoginAt
}

// Summary strips all secret material.
func (w *Wallet) Summary() *WalletSummary {
	return &WalletSummary{
		ID:          w.ID,
		Address:     w.Address,
		Email:       w.Email,
		Active:      w.Active,
		CreatedAt:   w.CreatedAt,
		LastLoginAt: w.LastLogin(),
	}
}

// WalletSummary is what callers get to see about a wallet.
type WalletSummary struct {
	ID          string
	Address     string
	Email       string
	Active      bool
	CreatedAt   time.Time
	LastLoginAt time.Time
}
