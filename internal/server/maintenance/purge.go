// Package maintenance runs periodic housekeeping against the Credential
// Store. Expired rows are already ignored by every lookup; purging only
// reclaims space.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
	"github.com/go-co-op/gocron/v2"
)

// Result counts the rows removed by one purge.
type Result struct {
	Sessions       int64
	RecoveryTokens int64
}

// Purger deletes expired sessions and spent or expired recovery tokens.
type Purger struct {
	store  store.Store
	logger logging.Logger
	now    func() time.Time
}

func NewPurger(st store.Store, l logging.Logger) *Purger {
	return &Purger{store: st, logger: l, now: time.Now}
}

// Purge runs both deletions. A failure in one does not skip the other.
func (p *Purger) Purge(ctx context.Context) (Result, error) {
	var res Result
	now := p.now()

	n, serr := p.store.Sessions().PurgeExpired(ctx, now)
	if serr != nil {
		serr = fmt.Errorf("purge sessions: %w", serr)
	}
	res.Sessions = n

	n, terr := p.store.RecoveryTokens().PurgeExpired(ctx, now)
	if terr != nil {
		terr = fmt.Errorf("purge recovery tokens: %w", terr)
	}
	res.RecoveryTokens = n

	return res, errors.Join(serr, terr)
}

func (p *Purger) run(ctx context.Context) {
	res, err := p.Purge(ctx)
	if err != nil {
		p.logger.Error(ctx, "purge failed", "error", err)
		return
	}
	if res.Sessions > 0 || res.RecoveryTokens > 0 {
		p.logger.Info(ctx, "purged expired rows", "sessions", res.Sessions, "recovery_tokens", res.RecoveryTokens)
	}
}

// Schedule starts a scheduler running p every interval, first run
// immediately. Runs never overlap. Callers stop it with Shutdown.
func Schedule(ctx context.Context, p *Purger, interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("purge interval must be positive, got %s", interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.run),
		gocron.WithName("purge-expired"),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("new purge job: %w", err)
	}

	sched.Start()
	return sched, nil
}
