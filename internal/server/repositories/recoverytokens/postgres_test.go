package recoverytokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Now().Add(time.Hour)
	created := time.Now()

	mock.ExpectQuery(`^INSERT INTO recovery_tokens \(wallet_id, email, token_hash, expires_at\) VALUES \(\$1, \$2, \$3, \$4\) RETURNING id, created_at$`).
		WithArgs("w-1", "u@test.io", "hash", exp).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("rt-1", created))

	tok := &models.RecoveryToken{WalletID: "w-1", Email: "u@test.io", TokenHash: "hash", ExpiresAt: exp}
	require.NoError(t, repo.Create(context.Background(), tok))
	assert.Equal(t, "rt-1", tok.ID)
	assert.Equal(t, created, tok.CreatedAt)
}

func TestFindValid(t *testing.T) {
	q := `^SELECT id, wallet_id, email, token_hash, expires_at, used, created_at FROM recovery_tokens WHERE token_hash = \$1 AND expires_at > \$2 AND NOT used$`
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).
			WithArgs("hash", now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "wallet_id", "email", "token_hash", "expires_at", "used", "created_at"}).
				AddRow("rt-1", "w-1", "u@test.io", "hash", now.Add(time.Hour), false, now))

		tok, err := repo.FindValid(context.Background(), "hash", now)
		require.NoError(t, err)
		assert.Equal(t, "rt-1", tok.ID)
		assert.Equal(t, "u@test.io", tok.Email)
		assert.False(t, tok.Used)
	})

	t.Run("used, expired or missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)

		_, err := repo.FindValid(context.Background(), "hash", now)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestMarkUsed(t *testing.T) {
	q := `^UPDATE recovery_tokens SET used = TRUE WHERE id = \$1 AND NOT used$`

	t.Run("first consumer wins", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkUsed(context.Background(), "rt-1"))
	})

	t.Run("already used", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.MarkUsed(context.Background(), "rt-1"), common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("db down"))

		err := repo.MarkUsed(context.Background(), "rt-1")
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db down`, err.Error())
	})
}

func TestInvalidateForWallet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE recovery_tokens SET used = TRUE WHERE wallet_id = \$1 AND NOT used$`).
		WithArgs("w-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.InvalidateForWallet(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPurgeExpired(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectExec(`^DELETE FROM recovery_tokens WHERE used OR expires_at <= \$1$`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
