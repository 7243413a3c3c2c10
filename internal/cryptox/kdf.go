// Package cryptox implements the key material primitives of the custody core:
// password-based key derivation, the AES-256-GCM envelope around private keys
// and password hashing.
package cryptox

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key length produced by DeriveKey.
	KeySize = 32
	// IVSize is the GCM nonce length used for private key envelopes.
	IVSize = 16
	// SaltSize is the number of random bytes in a key derivation salt.
	SaltSize = 32
	// MinIterations is the lowest PBKDF2 work factor accepted in production.
	MinIterations = 100_000
	// DefaultIterations follows the OWASP PBKDF2-HMAC-SHA512 recommendation.
	DefaultIterations = 210_000
)

// DeriveKey runs PBKDF2-HMAC-SHA512 over password and salt and returns a
// 32-byte key. The caller owns the returned slice and must wipe it.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if len(password) == 0 || len(salt) == 0 {
		return nil, fmt.Errorf("%w: password and salt are required", common.ErrInvalidInput)
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: non-positive iteration count", common.ErrDerivationFailure)
	}
	key := pbkdf2.Key(password, salt, iterations, KeySize, sha512.New)
	if len(key) != KeySize {
		common.WipeByteArray(key)
		return nil, common.ErrDerivationFailure
	}
	return key, nil
}

// NewIV returns a fresh random nonce for a single Seal call.
func NewIV() ([]byte, error) {
	iv, err := common.GenerateRandByteArray(IVSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDerivationFailure, err)
	}
	return iv, nil
}

// NewSalt returns a fresh hex-encoded derivation salt.
func NewSalt() (string, error) {
	s, err := common.MakeRandHexString(SaltSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDerivationFailure, err)
	}
	return s, nil
}

// EncodeIV and DecodeIV fix the persisted IV encoding to lowercase hex.
func EncodeIV(iv []byte) string { return hex.EncodeToString(iv) }

func DecodeIV(s string) ([]byte, error) {
	iv, err := hex.DecodeString(s)
	if err != nil || len(iv) != IVSize {
		return nil, fmt.Errorf("%w: malformed iv", common.ErrIntegrityFailure)
	}
	return iv, nil
}
