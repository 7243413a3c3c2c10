package models

import "time"

// Audit actions.
const (
	AuditExportKey      = "export_private_key"
	AuditChangePassword = "change_password"
	AuditRecoveryReset  = "recovery_reset"
	AuditDeactivate     = "deactivate"
	AuditReactivate     = "reactivate"
)

// Audit outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditEvent records a sensitive operation against a wallet.
type AuditEvent struct {
	ID       string    `json:"id"`
	WalletID string    `json:"wallet_id,omitempty"`
	Address  string    `json:"address"`
	Action   string    `json:"action"`
	Outcome  string    `json:"outcome"`
	Actor    string    `json:"actor"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}
