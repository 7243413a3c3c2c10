// Package services holds the custody core: the wallet lifecycle orchestrator,
// the session manager and the recovery manager. Every operation that touches
// secrets goes through here; transports only translate requests.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/chain"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/cryptox"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/audit"
	"github.com/dmitrijs2005/custodykeeper/internal/server/escrow"
	"github.com/dmitrijs2005/custodykeeper/internal/server/locks"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
	"github.com/google/uuid"
)

// ActorOwner marks audit events triggered by the wallet owner.
const ActorOwner = "owner"

// WalletService creates wallets and runs every operation that needs the
// decrypted private key. Mutations of one wallet are serialized through the
// locker keyed by address.
type WalletService struct {
	store    store.Store
	keys     *keyring
	escrow   escrow.Escrow
	sessions *SessionService
	locker   locks.Locker
	audit    audit.Sink
	logger   logging.Logger
	now      func() time.Time
}

func NewWalletService(
	st store.Store,
	d *cryptox.Deriver,
	e escrow.Escrow,
	ss *SessionService,
	lk locks.Locker,
	au audit.Sink,
	l logging.Logger,
) *WalletService {
	return &WalletService{
		store:    st,
		keys:     newKeyring(d),
		escrow:   e,
		sessions: ss,
		locker:   lk,
		audit:    au,
		logger:   l.With("module", "wallets"),
		now:      time.Now,
	}
}

// CreateWallet generates a keypair, seals it under password and stores the
// wallet. The private key never leaves this call.
func (s *WalletService) CreateWallet(ctx context.Context, email string, password []byte) (*models.WalletSummary, error) {
	e, err := common.ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.store.Wallets().GetByEmail(ctx, e); err == nil {
		return nil, common.ErrEmailTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, storeErr(err)
	}

	kp, err := chain.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(kp.PrivateKey)

	creds, err := s.keys.seal(ctx, kp.PrivateKey, password)
	if err != nil {
		return nil, err
	}
	escrowed, err := s.escrow.Seal(ctx, kp.Address, kp.PrivateKey)
	if err != nil {
		return nil, err
	}

	w, err := s.store.Wallets().Create(ctx, &models.Wallet{
		Address:             kp.Address,
		Email:               e,
		PasswordHash:        creds.PasswordHash,
		Salt:                creds.Salt,
		EncryptedPrivateKey: creds.EncryptedKey,
		EncryptionIV:        creds.IV,
		EscrowedPrivateKey:  escrowed,
		Active:              true,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrEmailTaken
		}
		return nil, storeErr(err)
	}

	s.logger.Info(ctx, "wallet created", "wallet_id", w.ID, "address", w.Address)
	return w.Summary(), nil
}

// Authenticate checks email and password and opens a session. Unknown email
// and wrong password are indistinguishable.
func (s *WalletService) Authenticate(ctx context.Context, email string, password []byte) (*SessionTicket, error) {
	e, err := common.ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	w, err := s.store.Wallets().GetByEmail(ctx, e)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.keys.burn(ctx, password)
		}
		return nil, storeErr(err)
	}
	if err := s.keys.verify(ctx, w, password); err != nil {
		return nil, err
	}
	if !w.Active {
		return nil, common.ErrWalletInactive
	}

	priv, err := s.keys.open(ctx, w, password)
	if err != nil {
		s.logger.Error(ctx, "wallet key failed to open after password check", "wallet_id", w.ID, "error", err)
		return nil, err
	}
	defer common.WipeByteArray(priv)

	var ticket *SessionTicket
	err = s.store.InTx(ctx, func(ctx context.Context, r store.Repos) error {
		// Refuse if the wallet changed since the password check.
		locked, err := r.Wallets().GetByIDForUpdate(ctx, w.ID)
		if err != nil {
			return storeErr(err)
		}
		if !locked.Active {
			return common.ErrWalletInactive
		}
		if locked.Version != w.Version || locked.PasswordHash != w.PasswordHash {
			return common.ErrInvalidCredentials
		}

		t, err := s.sessions.Issue(ctx, r.Sessions(), w.ID, w.Address, priv)
		if err != nil {
			return err
		}
		ticket = t
		return storeErr(r.Wallets().TouchLastLogin(ctx, w.ID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "wallet login", "wallet_id", w.ID)
	return ticket, nil
}

func (s *WalletService) VerifySession(ctx context.Context, token string) (*SessionInfo, error) {
	return s.sessions.Validate(ctx, token)
}

func (s *WalletService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// SignMessage signs message with the key carried by the session. The
// session must belong to address.
func (s *WalletService) SignMessage(ctx context.Context, address string, message []byte, sessionToken string) (string, error) {
	addr, err := chain.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	if len(message) == 0 {
		return "", fmt.Errorf("%w: empty message", common.ErrInvalidInput)
	}

	sess, err := s.sessions.lookup(ctx, sessionToken)
	if err != nil {
		return "", err
	}
	if sess.Address != addr {
		return "", common.ErrAddressMismatch
	}

	priv, err := s.sessions.openKey(sess, sessionToken)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(priv)

	if err := checkAddress(priv, addr); err != nil {
		return "", err
	}
	return chain.SignMessage(priv, message)
}

// VerifySignature reports whether signature over message was made by
// address. It needs no secrets.
func (s *WalletService) VerifySignature(ctx context.Context, address string, message []byte, signature string) (bool, error) {
	return chain.VerifyMessage(address, message, signature)
}

// GetWallet returns the public summary of the wallet at address.
func (s *WalletService) GetWallet(ctx context.Context, address string) (*models.WalletSummary, error) {
	addr, err := chain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	w, err := s.store.Wallets().GetByAddress(ctx, addr)
	if err != nil {
		return nil, storeErr(err)
	}
	return w.Summary(), nil
}

// ChangePassword reseals the key under newPassword and ends all sessions.
// The address never changes.
func (s *WalletService) ChangePassword(ctx context.Context, address string, oldPassword, newPassword []byte) error {
	addr, err := chain.NormalizeAddress(address)
	if err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if len(oldPassword) == 0 {
		return common.ErrInvalidCredentials
	}

	unlock, err := s.locker.Lock(ctx, addr)
	if err != nil {
		return err
	}
	defer unlock()

	w, err := s.changePassword(ctx, addr, oldPassword, newPassword)
	s.record(ctx, w, addr, models.AuditChangePassword, ActorOwner, "", err)
	return err
}

func (s *WalletService) changePassword(ctx context.Context, addr string, oldPassword, newPassword []byte) (*models.Wallet, error) {
	w, err := s.authorize(ctx, addr, oldPassword)
	if err != nil {
		return w, err
	}

	priv, err := s.keys.open(ctx, w, oldPassword)
	if err != nil {
		return w, err
	}
	defer common.WipeByteArray(priv)

	creds, err := s.keys.seal(ctx, priv, newPassword)
	if err != nil {
		return w, err
	}

	return w, s.store.InTx(ctx, func(ctx context.Context, r store.Repos) error {
		return replaceCredentials(ctx, r, w.ID, w.Version, creds)
	})
}

// ExportPrivateKey returns the raw private key after a password check. The
// caller wipes the result. A key is never returned unless the export was
// recorded in the audit trail.
func (s *WalletService) ExportPrivateKey(ctx context.Context, address string, password []byte) ([]byte, error) {
	addr, err := chain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, common.ErrInvalidCredentials
	}

	unlock, err := s.locker.Lock(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := s.authorize(ctx, addr, password)
	if err != nil {
		s.record(ctx, w, addr, models.AuditExportKey, ActorOwner, "", err)
		return nil, err
	}

	priv, err := s.keys.open(ctx, w, password)
	if err != nil {
		s.record(ctx, w, addr, models.AuditExportKey, ActorOwner, "", err)
		return nil, err
	}

	if err := s.audit.Record(ctx, s.event(w, addr, models.AuditExportKey, ActorOwner, "", nil)); err != nil {
		common.WipeByteArray(priv)
		s.logger.Error(ctx, "export refused, audit unavailable", "wallet_id", w.ID, "error", err)
		return nil, fmt.Errorf("%w: audit: %v", common.ErrStoreUnavailable, err)
	}
	return priv, nil
}

// Deactivate disables the wallet: sessions and recovery tokens are
// invalidated and logins are refused until Reactivate.
func (s *WalletService) Deactivate(ctx context.Context, address, actor, reason string) error {
	return s.setActive(ctx, address, actor, reason, false)
}

func (s *WalletService) Reactivate(ctx context.Context, address, actor, reason string) error {
	return s.setActive(ctx, address, actor, reason, true)
}

func (s *WalletService) setActive(ctx context.Context, address, actor, reason string, active bool) error {
	addr, err := chain.NormalizeAddress(address)
	if err != nil {
		return err
	}
	action := models.AuditReactivate
	if !active {
		action = models.AuditDeactivate
	}

	unlock, err := s.locker.Lock(ctx, addr)
	if err != nil {
		return err
	}
	defer unlock()

	w, err := s.store.Wallets().GetByAddress(ctx, addr)
	if err != nil {
		err = storeErr(err)
		s.record(ctx, nil, addr, action, actor, reason, err)
		return err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Wallets().SetActive(ctx, w.ID, active); err != nil {
			return storeErr(err)
		}
		if active {
			return nil
		}
		if _, err := s.sessions.RevokeAll(ctx, r.Sessions(), w.ID); err != nil {
			return err
		}
		_, err := r.RecoveryTokens().InvalidateForWallet(ctx, w.ID)
		return storeErr(err)
	})
	s.record(ctx, w, addr, action, actor, reason, err)
	if err == nil {
		s.logger.Info(ctx, "wallet state changed", "wallet_id", w.ID, "active", active, "actor", actor)
	}
	return err
}

// authorize loads the wallet at addr and checks password. A missing wallet
// reads as bad credentials.
func (s *WalletService) authorize(ctx context.Context, addr string, password []byte) (*models.Wallet, error) {
	// bcrypt reads only the first MaxPasswordLength bytes, the KDF reads all
	// of them. No stored password can be longer.
	if len(password) > cryptox.MaxPasswordLength {
		return nil, s.keys.burn(ctx, password[:cryptox.MaxPasswordLength])
	}
	w, err := s.store.Wallets().GetByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.keys.burn(ctx, password)
		}
		return nil, storeErr(err)
	}
	if err := s.keys.verify(ctx, w, password); err != nil {
		return w, err
	}
	if !w.Active {
		return w, common.ErrWalletInactive
	}
	return w, nil
}

func (s *WalletService) event(w *models.Wallet, addr, action, actor, reason string, opErr error) *models.AuditEvent {
	ev := &models.AuditEvent{
		ID:      uuid.NewString(),
		Address: addr,
		Action:  action,
		Outcome: models.OutcomeSuccess,
		Actor:   actor,
		Reason:  reason,
		At:      s.now().UTC(),
	}
	if w != nil {
		ev.WalletID = w.ID
	}
	if opErr != nil {
		ev.Outcome = models.OutcomeFailure
		ev.Reason = common.PublicMessage(opErr)
	}
	return ev
}

// record writes an audit event. The operation already happened, so a
// failing sink is logged and not returned.
func (s *WalletService) record(ctx context.Context, w *models.Wallet, addr, action, actor, reason string, opErr error) {
	if err := s.audit.Record(ctx, s.event(w, addr, action, actor, reason, opErr)); err != nil {
		s.logger.Error(ctx, "audit record failed", "action", action, "address", addr, "error", err)
	}
}
