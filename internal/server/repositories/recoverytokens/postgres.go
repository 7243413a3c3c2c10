package recoverytokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/dbx"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.RecoveryToken) error {
	query := `
		INSERT INTO recovery_tokens (wallet_id, email, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, t.WalletID, t.Email, t.TokenHash, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindValid(ctx context.Context, tokenHash string, now time.Time) (*models.RecoveryToken, error) {
	query := `
		SELECT id, wallet_id, email, token_hash, expires_at, used, created_at
		FROM recovery_tokens
		WHERE token_hash = $1 AND expires_at > $2 AND NOT used
	`
	t := &models.RecoveryToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).
		Scan(&t.ID, &t.WalletID, &t.Email, &t.TokenHash, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	n, err := r.exec(ctx, `UPDATE recovery_tokens SET used = TRUE WHERE id = $1 AND NOT used`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) InvalidateForWallet(ctx context.Context, walletID string) (int64, error) {
	return r.exec(ctx, `UPDATE recovery_tokens SET used = TRUE WHERE wallet_id = $1 AND NOT used`, walletID)
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM recovery_tokens WHERE used OR expires_at <= $1`, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
