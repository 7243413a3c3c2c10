package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/cryptox"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/audit"
	"github.com/dmitrijs2005/custodykeeper/internal/server/escrow"
	"github.com/dmitrijs2005/custodykeeper/internal/server/locks"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/notify"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
	"github.com/google/uuid"
)

// ActorRecovery marks audit events triggered through a recovery token.
const ActorRecovery = "recovery"

const recoveryTokenSize = 32

// RecoveryTicket is a freshly issued recovery token. Token is only ever
// handed to the notifier and the direct caller.
type RecoveryTicket struct {
	WalletID  string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// RecoveryInfo describes a valid, unused recovery token.
type RecoveryInfo struct {
	WalletID  string
	Email     string
	ExpiresAt time.Time
}

// RecoveryService resets a forgotten password. The private key is taken
// from escrow, so the wallet keeps its address.
type RecoveryService struct {
	store    store.Store
	keys     *keyring
	escrow   escrow.Escrow
	locker   locks.Locker
	audit    audit.Sink
	notifier notify.Notifier
	ttl      time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewRecoveryService(
	st store.Store,
	d *cryptox.Deriver,
	e escrow.Escrow,
	lk locks.Locker,
	au audit.Sink,
	n notify.Notifier,
	ttl time.Duration,
	l logging.Logger,
) *RecoveryService {
	return &RecoveryService{
		store:    st,
		keys:     newKeyring(d),
		escrow:   e,
		locker:   lk,
		audit:    au,
		notifier: n,
		ttl:      ttl,
		logger:   l.With("module", "recovery"),
		now:      time.Now,
	}
}

// Initiate issues a recovery token for the wallet registered under email
// and hands it to the notifier. Earlier unused tokens stop working.
func (s *RecoveryService) Initiate(ctx context.Context, email string) (*RecoveryTicket, error) {
	e, err := common.ValidateEmail(email)
	if err != nil {
		return nil, err
	}

	w, err := s.store.Wallets().GetByEmail(ctx, e)
	if err != nil {
		return nil, notFoundAs(err, common.ErrEmailNotFound)
	}
	if !w.Active {
		return nil, common.ErrWalletInactive
	}

	token, err := common.MakeRandHexString(recoveryTokenSize)
	if err != nil {
		return nil, common.ErrDerivationFailure
	}
	rt := &models.RecoveryToken{
		WalletID:  w.ID,
		Email:     w.Email,
		TokenHash: common.HashToken(token),
		ExpiresAt: s.now().Add(s.ttl),
	}

	err = s.store.InTx(ctx, func(ctx context.Context, r store.Repos) error {
		if _, err := r.RecoveryTokens().InvalidateForWallet(ctx, w.ID); err != nil {
			return storeErr(err)
		}
		return storeErr(r.RecoveryTokens().Create(ctx, rt))
	})
	if err != nil {
		return nil, err
	}

	ticket := &RecoveryTicket{WalletID: w.ID, Email: w.Email, Token: token, ExpiresAt: rt.ExpiresAt}
	if err := s.notifier.SendRecovery(ctx, &notify.Ticket{
		WalletID:  ticket.WalletID,
		Email:     ticket.Email,
		Token:     ticket.Token,
		ExpiresAt: ticket.ExpiresAt,
	}); err != nil {
		s.logger.Error(ctx, "recovery notification failed", "wallet_id", w.ID, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "recovery initiated", "wallet_id", w.ID, "expires_at", rt.ExpiresAt)
	return ticket, nil
}

func (s *RecoveryService) find(ctx context.Context, token string) (*models.RecoveryToken, error) {
	if token == "" {
		return nil, common.ErrInvalidOrExpiredToken
	}
	rt, err := s.store.RecoveryTokens().FindValid(ctx, common.HashToken(token), s.now())
	if err != nil {
		return nil, notFoundAs(err, common.ErrInvalidOrExpiredToken)
	}
	return rt, nil
}

// Verify reports who a token belongs to without consuming it.
func (s *RecoveryService) Verify(ctx context.Context, token string) (*RecoveryInfo, error) {
	rt, err := s.find(ctx, token)
	if err != nil {
		return nil, err
	}
	return &RecoveryInfo{WalletID: rt.WalletID, Email: rt.Email, ExpiresAt: rt.ExpiresAt}, nil
}

// ConsumeAndReset spends token and reseals the escrowed key under
// newPassword. Either the token is consumed and the password replaced, or
// neither happens.
func (s *RecoveryService) ConsumeAndReset(ctx context.Context, token string, newPassword []byte) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	rt, err := s.find(ctx, token)
	if err != nil {
		return err
	}
	w, err := s.store.Wallets().GetByID(ctx, rt.WalletID)
	if err != nil {
		return notFoundAs(err, common.ErrInvalidOrExpiredToken)
	}

	unlock, err := s.locker.Lock(ctx, w.Address)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.reset(ctx, rt, newPassword)
	s.record(ctx, w, err)
	if err == nil {
		s.logger.Info(ctx, "password reset through recovery", "wallet_id", w.ID)
	}
	return err
}

func (s *RecoveryService) reset(ctx context.Context, rt *models.RecoveryToken, newPassword []byte) error {
	w, err := s.store.Wallets().GetByID(ctx, rt.WalletID)
	if err != nil {
		return notFoundAs(err, common.ErrInvalidOrExpiredToken)
	}
	if !w.Active {
		return common.ErrWalletInactive
	}
	if w.EscrowedPrivateKey == "" {
		return common.ErrIntegrityFailure
	}

	priv, err := s.escrow.Open(ctx, w.Address, w.EscrowedPrivateKey)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(priv)
	if err := checkAddress(priv, w.Address); err != nil {
		return err
	}

	creds, err := s.keys.seal(ctx, priv, newPassword)
	if err != nil {
		return err
	}

	return s.store.InTx(ctx, func(ctx context.Context, r store.Repos) error {
		cur, err := r.RecoveryTokens().FindValid(ctx, rt.TokenHash, s.now())
		if err != nil {
			return notFoundAs(err, common.ErrInvalidOrExpiredToken)
		}
		if err := r.RecoveryTokens().MarkUsed(ctx, cur.ID); err != nil {
			return notFoundAs(err, common.ErrInvalidOrExpiredToken)
		}
		if err := replaceCredentials(ctx, r, w.ID, w.Version, creds); err != nil {
			return err
		}
		_, err = r.RecoveryTokens().InvalidateForWallet(ctx, w.ID)
		return storeErr(err)
	})
}

func (s *RecoveryService) record(ctx context.Context, w *models.Wallet, opErr error) {
	ev := &models.AuditEvent{
		ID:       uuid.NewString(),
		WalletID: w.ID,
		Address:  w.Address,
		Action:   models.AuditRecoveryReset,
		Outcome:  models.OutcomeSuccess,
		Actor:    ActorRecovery,
		At:       s.now().UTC(),
	}
	if opErr != nil {
		ev.Outcome = models.OutcomeFailure
		ev.Reason = common.PublicMessage(opErr)
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.Error(ctx, "audit record failed", "action", ev.Action, "wallet_id", w.ID, "error", err)
	}
}
