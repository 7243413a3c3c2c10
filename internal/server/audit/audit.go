// Package audit records sensitive wallet operations.
package audit

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
)

// Sink receives audit events.
type Sink interface {
	Record(ctx context.Context, ev *models.AuditEvent) error
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{logger: l.With("module", "audit")}
}

func (s *LogSink) Record(ctx context.Context, ev *models.AuditEvent) error {
	s.logger.Info(ctx, "audit",
		"event_id", ev.ID,
		"wallet_id", ev.WalletID,
		"address", ev.Address,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"actor", ev.Actor,
		"reason", ev.Reason,
		"at", ev.At,
	)
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, ev *models.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
