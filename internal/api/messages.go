package api

import "time"

// Secrets travel as []byte so the server can wipe them after use.

type Empty struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type CreateWalletRequest struct {
	Email    string `json:"email"`
	Password []byte `json:"password"`
}

type CreateWalletResponse struct {
	WalletID  string    `json:"wallet_id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthenticateRequest struct {
	Email    string `json:"email"`
	Password []byte `json:"password"`
}

type AuthenticateResponse struct {
	SessionToken string    `json:"session_token"`
	WalletID     string    `json:"wallet_id"`
	Address      string    `json:"address"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionResponse describes the session presented in metadata.
type SessionResponse struct {
	WalletID  string    `json:"wallet_id"`
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignMessageRequest struct {
	Address string `json:"address"`
	Message []byte `json:"message"`
}

type SignMessageResponse struct {
	Signature string `json:"signature"`
}

type VerifySignatureRequest struct {
	Address   string `json:"address"`
	Message   []byte `json:"message"`
	Signature string `json:"signature"`
}

type VerifySignatureResponse struct {
	Valid bool `json:"valid"`
}

type ChangePasswordRequest struct {
	Address     string `json:"address"`
	OldPassword []byte `json:"old_password"`
	NewPassword []byte `json:"new_password"`
}

type ExportPrivateKeyRequest struct {
	Address  string `json:"address"`
	Password []byte `json:"password"`
}

// ExportPrivateKeyResponse carries the 0x-prefixed hex private key.
type ExportPrivateKeyResponse struct {
	PrivateKey string `json:"private_key"`
}

type InitiateRecoveryRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword []byte `json:"new_password"`
}

type GetWalletRequest struct {
	Address string `json:"address"`
}

type WalletInfo struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	Email       string    `json:"email"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

type SetActiveRequest struct {
	Address string `json:"address"`
	Reason  string `json:"reason,omitempty"`
}
