package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_ExpireAtTTL(t *testing.T) {
	env := newTestEnv(t)
	env.createWallet(t, "s@example.com", "pw")
	ticket := env.login(t, "s@example.com", "pw")
	ctx := context.Background()

	env.sessions.now = func() time.Time { return ticket.ExpiresAt.Add(-time.Second) }
	_, err := env.sessions.Validate(ctx, ticket.Token)
	require.NoError(t, err)

	env.sessions.now = func() time.Time { return ticket.ExpiresAt }
	_, err = env.sessions.Validate(ctx, ticket.Token)
	assert.ErrorIs(t, err, common.ErrInvalidSession)
}

func TestSessions_TokenIsStoredHashed(t *testing.T) {
	env := newTestEnv(t)
	env.createWallet(t, "h@example.com", "pw")
	ticket := env.login(t, "h@example.com", "pw")
	ctx := context.Background()

	_, err := env.store.Sessions().FindValid(ctx, ticket.Token, time.Now())
	assert.ErrorIs(t, err, common.ErrorNotFound)

	sess, err := env.store.Sessions().FindValid(ctx, common.HashToken(ticket.Token), time.Now())
	require.NoError(t, err)
	assert.NotContains(t, sess.SealedKey, ticket.Token)
}

func TestSessions_KeyOpensOnlyWithOwnToken(t *testing.T) {
	env := newTestEnv(t)
	env.createWallet(t, "k@example.com", "pw")
	a := env.login(t, "k@example.com", "pw")
	b := env.login(t, "k@example.com", "pw")

	sessA, err := env.sessions.lookup(context.Background(), a.Token)
	require.NoError(t, err)

	_, err = env.sessions.openKey(sessA, b.Token)
	assert.ErrorIs(t, err, common.ErrIntegrityFailure)

	priv, err := env.sessions.openKey(sessA, a.Token)
	require.NoError(t, err)
	assert.NoError(t, checkAddress(priv, a.Address))
}

func TestSessions_EmptyTokens(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Validate(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidSession)
	assert.NoError(t, env.sessions.Revoke(context.Background(), ""))
}

func TestSessions_RevokeAllCountsRows(t *testing.T) {
	env := newTestEnv(t)
	env.createWallet(t, "r@example.com", "pw")
	first := env.login(t, "r@example.com", "pw")
	env.login(t, "r@example.com", "pw")

	n, err := env.sessions.RevokeAll(context.Background(), env.store.Sessions(), first.WalletID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

type downSessions struct {
	sessions.Repository
}

func (downSessions) Create(context.Context, *models.Session) error {
	return errors.New("connection refused")
}

func TestSessions_StoreFailureIsTransient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Issue(context.Background(), downSessions{}, "w", "0xabc", make([]byte, 32))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.True(t, common.IsTransient(err))
	assert.NotContains(t, common.PublicMessage(err), "connection refused")
}
