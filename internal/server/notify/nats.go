package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/nats-io/nats.go"
)

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

const flushTimeout = 5 * time.Second

// NATSNotifier publishes tickets as JSON on a subject consumed by the mailer.
type NATSNotifier struct {
	conn    publisher
	subject string
	logger  logging.Logger
}

func NewNATSNotifier(conn publisher, subject string, l logging.Logger) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject, logger: l.With("module", "notify")}
}

// ConnectNATS dials url with reconnect handling that logs through l.
func ConnectNATS(url string, l logging.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("custodykeeper"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			l.Warn(context.Background(), "nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info(context.Background(), "nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// SendRecovery publishes the ticket and waits for the server to
// acknowledge it.
func (n *NATSNotifier) SendRecovery(ctx context.Context, t *Ticket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(data)

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("%w: nats publish: %v", common.ErrStoreUnavailable, err)
	}
	fctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := n.conn.FlushWithContext(fctx); err != nil {
		return fmt.Errorf("%w: nats flush: %v", common.ErrStoreUnavailable, err)
	}

	n.logger.Info(ctx, "recovery ticket published", "wallet_id", t.WalletID, "subject", n.subject)
	return nil
}
