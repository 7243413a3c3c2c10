package models

import "time"

// Session is a login session. Only the sha256 of the bearer token is kept.
// SealedKey holds the wallet private key sealed under a key derived from the
// bearer token, so signing needs the token and never the password.
type Session struct {
	WalletID  string
	Address   string
	TokenHash string
	SealedKey string
	KeyIV     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RecoveryToken is one in-flight recovery attempt. Only the sha256 of the
// token is kept.
type RecoveryToken struct {
	ID        string
	WalletID  string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
