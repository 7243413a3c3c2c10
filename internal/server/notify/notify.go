// Package notify delivers recovery tickets out of band. Tokens travel only
// through the delivery channel and are never logged.
package notify

import (
	"context"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/logging"
)

// Ticket is a freshly issued recovery token addressed to a wallet owner.
type Ticket struct {
	WalletID  string    `json:"wallet_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier hands a ticket to whatever delivers it (mailer, queue).
type Notifier interface {
	SendRecovery(ctx context.Context, t *Ticket) error
}

// LogNotifier is used when no delivery channel is configured: it records
// that a ticket was issued and drops the token.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With("module", "notify")}
}

func (n *LogNotifier) SendRecovery(ctx context.Context, t *Ticket) error {
	n.logger.Warn(ctx, "recovery ticket issued without delivery channel",
		"wallet_id", t.WalletID, "expires_at", t.ExpiresAt)
	return nil
}
