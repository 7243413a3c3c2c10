package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/dbx"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectColumns = `id, address, email, password_hash, salt, encrypted_private_key, encryption_iv,
		        escrowed_private_key, active, version, created_at, updated_at, last_login_at`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, w *models.Wallet) (*models.Wallet, error) {
	query :=
		`INSERT INTO wallets (address, email, password_hash, salt, encrypted_private_key, encryption_iv, escrowed_private_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, active, version, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		w.Address, w.Email, w.PasswordHash, w.Salt, w.EncryptedPrivateKey, w.EncryptionIV, w.EscrowedPrivateKey,
	).Scan(&w.ID, &w.Active, &w.Version, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "wallets_email_key":
				return nil, common.ErrDuplicateEmail
			case "wallets_address_key":
				return nil, common.ErrDuplicateAddress
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return w, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM wallets WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Wallet, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM wallets WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM wallets WHERE address = $1`, address)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Wallet, error) {
	w := &models.Wallet{}
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&w.ID, &w.Address, &w.Email, &w.PasswordHash, &w.Salt, &w.EncryptedPrivateKey, &w.EncryptionIV,
		&w.EscrowedPrivateKey, &w.Active, &w.Version, &w.CreatedAt, &w.UpdatedAt, &lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		w.LastLoginAt = &lastLogin.Time
	}
	return w, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, salt string) error {
	query :=
		`UPDATE wallets SET password_hash = $2, salt = $3, updated_at = now()
		 WHERE id = $1`

	return r.execOne(ctx, query, id, passwordHash, salt)
}

func (r *PostgresRepository) UpdateKeyMaterial(ctx context.Context, id string, encryptedKey string, iv string, version int64) error {
	query :=
		`UPDATE wallets SET encrypted_private_key = $2, encryption_iv = $3, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $4`

	err := r.execOne(ctx, query, id, encryptedKey, iv, version)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrVersionConflict
	}
	return err
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE wallets SET last_login_at = now() WHERE id = $1`, id)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.execOne(ctx, `UPDATE wallets SET active = $2, updated_at = now() WHERE id = $1`, id, active)
}

// execOne runs an UPDATE that must hit exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
