package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/custodykeeper/internal/chain"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/cryptox"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
)

// credentials is everything persisted for one password: the bcrypt hash,
// the PBKDF2 salt and the private key sealed under the derived key.
type credentials struct {
	PasswordHash string
	Salt         string
	EncryptedKey string
	IV           string
}

// keyring holds the password side of wallet crypto.
type keyring struct {
	deriver *cryptox.Deriver

	mu        sync.Mutex
	dummyHash string
}

func newKeyring(d *cryptox.Deriver) *keyring {
	k := &keyring{deriver: d}
	k.dummyHash, _ = newDummyHash(d.BcryptCost())
	return k
}

// newDummyHash hashes a random password outside the worker pool.
func newDummyHash(cost int) (string, error) {
	pw, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	return cryptox.HashPassword([]byte(pw), cost)
}

func validatePassword(password []byte) error {
	if len(password) == 0 || len(password) > cryptox.MaxPasswordLength {
		return fmt.Errorf("%w: password must be 1 to %d bytes", common.ErrInvalidInput, cryptox.MaxPasswordLength)
	}
	return nil
}

// seal produces fresh credentials for privateKey under password. Salt and IV
// are always new.
func (k *keyring) seal(ctx context.Context, privateKey, password []byte) (*credentials, error) {
	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, err
	}
	m, err := k.deriver.Derive(ctx, password, salt)
	if err != nil {
		return nil, err
	}
	defer m.Wipe()

	enc, err := cryptox.Seal(privateKey, m.Key, m.IV)
	if err != nil {
		return nil, err
	}
	hash, err := k.deriver.HashPassword(ctx, password)
	if err != nil {
		return nil, err
	}
	return &credentials{PasswordHash: hash, Salt: salt, EncryptedKey: enc, IV: cryptox.EncodeIV(m.IV)}, nil
}

// verify checks password against the stored bcrypt hash.
func (k *keyring) verify(ctx context.Context, w *models.Wallet, password []byte) error {
	ok, err := k.deriver.CheckPassword(ctx, w.PasswordHash, password)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidCredentials
	}
	return nil
}

// burn spends the same bcrypt work as verify for a wallet that does not
// exist, so a miss is not faster than a wrong password. It fails only the
// way verify would.
func (k *keyring) burn(ctx context.Context, password []byte) error {
	k.mu.Lock()
	if k.dummyHash == "" {
		k.dummyHash, _ = newDummyHash(k.deriver.BcryptCost())
	}
	hash := k.dummyHash
	k.mu.Unlock()

	if hash == "" {
		return common.ErrInvalidCredentials
	}
	if _, err := k.deriver.CheckPassword(ctx, hash, password); err != nil {
		return err
	}
	return common.ErrInvalidCredentials
}

// open decrypts the wallet key with password. The caller wipes the result.
func (k *keyring) open(ctx context.Context, w *models.Wallet, password []byte) ([]byte, error) {
	key, err := k.deriver.DeriveKey(ctx, password, w.Salt)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	iv, err := cryptox.DecodeIV(w.EncryptionIV)
	if err != nil {
		return nil, err
	}
	priv, err := cryptox.Open(w.EncryptedPrivateKey, key, iv)
	if err != nil {
		return nil, err
	}
	if err := checkAddress(priv, w.Address); err != nil {
		common.WipeByteArray(priv)
		return nil, err
	}
	return priv, nil
}

// checkAddress fails with ErrIntegrityFailure unless priv controls address.
func checkAddress(priv []byte, address string) error {
	got, err := chain.AddressFromPrivateKey(priv)
	if err != nil {
		return err
	}
	if got != address {
		return fmt.Errorf("%w: key does not match address", common.ErrIntegrityFailure)
	}
	return nil
}

// replaceCredentials installs c on the wallet inside a transaction and ends
// every session, which still carry the previous key copy. It fails with
// ErrVersionConflict if the wallet changed since version was read.
func replaceCredentials(ctx context.Context, r store.Repos, walletID string, version int64, c *credentials) error {
	locked, err := r.Wallets().GetByIDForUpdate(ctx, walletID)
	if err != nil {
		return storeErr(err)
	}
	if locked.Version != version {
		return common.ErrVersionConflict
	}
	if err := r.Wallets().UpdateKeyMaterial(ctx, walletID, c.EncryptedKey, c.IV, version); err != nil {
		return storeErr(err)
	}
	if err := r.Wallets().UpdatePassword(ctx, walletID, c.PasswordHash, c.Salt); err != nil {
		return storeErr(err)
	}
	if _, err := r.Sessions().DeleteByWallet(ctx, walletID); err != nil {
		return storeErr(err)
	}
	return nil
}
