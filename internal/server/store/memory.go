package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/recoverytokens"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/wallets"
	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same semantics as the
// PostgreSQL schema. Transactions are serialized and roll back by restoring
// a snapshot; no reader outside a transaction sees its intermediate state.
type MemoryStore struct {
	txMu sync.RWMutex
	mu   sync.Mutex

	wallets  map[string]models.Wallet
	sessions map[string]models.Session
	tokens   map[string]models.RecoveryToken

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets:  map[string]models.Wallet{},
		sessions: map[string]models.Session{},
		tokens:   map[string]models.RecoveryToken{},
		now:      time.Now,
	}
}

func (s *MemoryStore) Wallets() wallets.Repository { return &memWallets{s: s} }
func (s *MemoryStore) Sessions() sessions.Repository { return &memSessions{s: s} }
func (s *MemoryStore) RecoveryTokens() recoverytokens.Repository { return &memTokens{s: s} }

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	w, ss, tk := clone(s.wallets), clone(s.sessions), clone(s.tokens)
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.wallets, s.sessions, s.tokens = w, ss, tk
		s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &memTx{s: s}); err != nil {
		rollback()
		return err
	}
	return nil
}

// lock takes the data lock and, outside a transaction, waits for any
// running transaction to finish.
func (s *MemoryStore) lock(inTx bool) func() {
	if !inTx {
		s.txMu.RLock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.RUnlock()
		}
	}
}

func clone[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memTx struct{ s *MemoryStore }

func (t *memTx) Wallets() wallets.Repository { return &memWallets{s: t.s, inTx: true} }
func (t *memTx) Sessions() sessions.Repository { return &memSessions{s: t.s, inTx: true} }
func (t *memTx) RecoveryTokens() recoverytokens.Repository { return &memTokens{s: t.s, inTx: true} }

type memWallets struct {
	s    *MemoryStore
	inTx bool
}

func (r *memWallets) Create(ctx context.Context, w *models.Wallet) (*models.Wallet, error) {
	defer r.s.lock(r.inTx)()

	for _, existing := range r.s.wallets {
		if existing.Email == w.Email {
			return nil, common.ErrDuplicateEmail
		}
		if existing.Address == w.Address {
			return nil, common.ErrDuplicateAddress
		}
	}

	now := r.s.now()
	w.ID = uuid.NewString()
	w.Active = true
	w.Version = 1
	w.CreatedAt = now
	w.UpdatedAt = now
	w.LastLoginAt = nil
	r.s.wallets[w.ID] = *w
	return w, nil
}

func (r *memWallets) find(match func(w *models.Wallet) bool) (*models.Wallet, error) {
	defer r.s.lock(r.inTx)()

	for _, w := range r.s.wallets {
		if match(&w) {
			out := w
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memWallets) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	return r.find(func(w *models.Wallet) bool { return w.ID == id })
}

func (r *memWallets) GetByEmail(ctx context.Context, email string) (*models.Wallet, error) {
	return r.find(func(w *models.Wallet) bool { return w.Email == email })
}

func (r *memWallets) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return r.find(func(w *models.Wallet) bool { return w.Address == address })
}

func (r *memWallets) GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *memWallets) update(id string, fn func(w *models.Wallet) error) error {
	defer r.s.lock(r.inTx)()

	w, ok := r.s.wallets[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := fn(&w); err != nil {
		return err
	}
	r.s.wallets[id] = w
	return nil
}

func (r *memWallets) UpdatePassword(ctx context.Context, id string, passwordHash string, salt string) error {
	return r.update(id, func(w *models.Wallet) error {
		w.PasswordHash = passwordHash
		w.Salt = salt
		w.UpdatedAt = r.s.now()
		return nil
	})
}

func (r *memWallets) UpdateKeyMaterial(ctx context.Context, id string, encryptedKey string, iv string, version int64) error {
	err := r.update(id, func(w *models.Wallet) error {
		if w.Version != version {
			return common.ErrVersionConflict
		}
		w.EncryptedPrivateKey = encryptedKey
		w.EncryptionIV = iv
		w.Version++
		w.UpdatedAt = r.s.now()
		return nil
	})
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrVersionConflict
	}
	return err
}

func (r *memWallets) TouchLastLogin(ctx context.Context, id string) error {
	return r.update(id, func(w *models.Wallet) error {
		now := r.s.now()
		w.LastLoginAt = &now
		return nil
	})
}

func (r *memWallets) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(id, func(w *models.Wallet) error {
		w.Active = active
		w.UpdatedAt = r.s.now()
		return nil
	})
}

type memSessions struct {
	s    *MemoryStore
	inTx bool
}

func (r *memSessions) Create(ctx context.Context, sess *models.Session) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.sessions[sess.TokenHash]; ok {
		return common.ErrorInternal
	}
	sess.CreatedAt = r.s.now()
	r.s.sessions[sess.TokenHash] = *sess
	return nil
}

func (r *memSessions) FindValid(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error) {
	defer r.s.lock(r.inTx)()

	sess, ok := r.s.sessions[tokenHash]
	if !ok || !sess.ExpiresAt.After(now) {
		return nil, common.ErrorNotFound
	}
	if w, ok := r.s.wallets[sess.WalletID]; !ok || !w.Active {
		return nil, common.ErrorNotFound
	}
	return &sess, nil
}

func (r *memSessions) Delete(ctx context.Context, tokenHash string) error {
	defer r.s.lock(r.inTx)()

	delete(r.s.sessions, tokenHash)
	return nil
}

func (r *memSessions) DeleteByWallet(ctx context.Context, walletID string) (int64, error) {
	defer r.s.lock(r.inTx)()

	var n int64
	for k, sess := range r.s.sessions {
		if sess.WalletID == walletID {
			delete(r.s.sessions, k)
			n++
		}
	}
	return n, nil
}

func (r *memSessions) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock(r.inTx)()

	var n int64
	for k, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(r.s.sessions, k)
			n++
		}
	}
	return n, nil
}

type memTokens struct {
	s    *MemoryStore
	inTx bool
}

func (r *memTokens) Create(ctx context.Context, t *models.RecoveryToken) error {
	defer r.s.lock(r.inTx)()

	for _, existing := range r.s.tokens {
		if existing.TokenHash == t.TokenHash {
			return common.ErrorInternal
		}
	}
	t.ID = uuid.NewString()
	t.CreatedAt = r.s.now()
	t.Used = false
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *memTokens) FindValid(ctx context.Context, tokenHash string, now time.Time) (*models.RecoveryToken, error) {
	defer r.s.lock(r.inTx)()

	for _, t := range r.s.tokens {
		if t.TokenHash == tokenHash && !t.Used && t.ExpiresAt.After(now) {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memTokens) MarkUsed(ctx context.Context, id string) error {
	defer r.s.lock(r.inTx)()

	t, ok := r.s.tokens[id]
	if !ok || t.Used {
		return common.ErrorNotFound
	}
	t.Used = true
	r.s.tokens[id] = t
	return nil
}

func (r *memTokens) InvalidateForWallet(ctx context.Context, walletID string) (int64, error) {
	defer r.s.lock(r.inTx)()

	var n int64
	for id, t := range r.s.tokens {
		if t.WalletID == walletID && !t.Used {
			t.Used = true
			r.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r *memTokens) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock(r.inTx)()

	var n int64
	for id, t := range r.s.tokens {
		if t.Used || !t.ExpiresAt.After(now) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}
