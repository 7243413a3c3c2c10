package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/cryptox"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
)

// sessionTokenSize is the number of random bytes behind a session token.
const sessionTokenSize = 32

// SessionTicket is returned once, on login. Token is never stored.
type SessionTicket struct {
	Token     string
	WalletID  string
	Address   string
	ExpiresAt time.Time
}

// SessionInfo describes a live session.
type SessionInfo struct {
	WalletID  string
	Address   string
	ExpiresAt time.Time
}

// SessionService issues and validates opaque bearer sessions. A session
// carries the wallet key sealed under a key derived from its token.
type SessionService struct {
	store  store.Store
	ttl    time.Duration
	logger logging.Logger
	now    func() time.Time
}

func NewSessionService(st store.Store, ttl time.Duration, l logging.Logger) *SessionService {
	return &SessionService{store: st, ttl: ttl, logger: l.With("module", "sessions"), now: time.Now}
}

// Issue creates a session through repo, which may be bound to a
// transaction. privateKey is sealed into the session and not retained.
func (s *SessionService) Issue(ctx context.Context, repo sessions.Repository, walletID, address string, privateKey []byte) (*SessionTicket, error) {
	token, err := common.MakeRandHexString(sessionTokenSize)
	if err != nil {
		return nil, common.ErrDerivationFailure
	}
	key, err := cryptox.TokenKey(token)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	iv, err := cryptox.NewIV()
	if err != nil {
		return nil, err
	}
	sealed, err := cryptox.Seal(privateKey, key, iv)
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		WalletID:  walletID,
		Address:   address,
		TokenHash: common.HashToken(token),
		SealedKey: sealed,
		KeyIV:     cryptox.EncodeIV(iv),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := repo.Create(ctx, sess); err != nil {
		return nil, storeErr(err)
	}

	return &SessionTicket{Token: token, WalletID: walletID, Address: address, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *SessionService) lookup(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrInvalidSession
	}
	sess, err := s.store.Sessions().FindValid(ctx, common.HashToken(token), s.now())
	if err != nil {
		return nil, notFoundAs(err, common.ErrInvalidSession)
	}
	return sess, nil
}

// Validate returns the session behind token. Unknown, expired and revoked
// tokens, and tokens of deactivated wallets, all yield ErrInvalidSession.
func (s *SessionService) Validate(ctx context.Context, token string) (*SessionInfo, error) {
	sess, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{WalletID: sess.WalletID, Address: sess.Address, ExpiresAt: sess.ExpiresAt}, nil
}

// openKey unseals the private key carried by sess. The caller wipes it.
func (s *SessionService) openKey(sess *models.Session, token string) ([]byte, error) {
	key, err := cryptox.TokenKey(token)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	iv, err := cryptox.DecodeIV(sess.KeyIV)
	if err != nil {
		return nil, err
	}
	return cryptox.Open(sess.SealedKey, key, iv)
}

// Revoke ends one session. Revoking an unknown token succeeds.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return storeErr(s.store.Sessions().Delete(ctx, common.HashToken(token)))
}

// RevokeAll ends every session of the wallet through repo.
func (s *SessionService) RevokeAll(ctx context.Context, repo sessions.Repository, walletID string) (int64, error) {
	n, err := repo.DeleteByWallet(ctx, walletID)
	if err != nil {
		return 0, storeErr(err)
	}
	if n > 0 {
		s.logger.Info(ctx, "sessions revoked", "wallet_id", walletID, "count", n)
	}
	return n, nil
}
