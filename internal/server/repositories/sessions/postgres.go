package sessions

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

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (token_hash, wallet_id, address, sealed_key, key_iv, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, s.TokenHash, s.WalletID, s.Address, s.SealedKey, s.KeyIV, s.ExpiresAt).
		Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindValid(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error) {
	query := `
		SELECT s.token_hash, s.wallet_id, s.address, s.sealed_key, s.key_iv, s.expires_at, s.created_at
		FROM sessions s
		JOIN wallets w ON w.id = s.wallet_id
		WHERE s.token_hash = $1 AND s.expires_at > $2 AND w.active
	`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).
		Scan(&s.TokenHash, &s.WalletID, &s.Address, &s.SealedKey, &s.KeyIV, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByWallet(ctx context.Context, walletID string) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM sessions WHERE wallet_id = $1`, walletID)
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
}

func (r *PostgresRepository) deleteWhere(ctx context.Context, query string, arg any) (int64, error) {
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
