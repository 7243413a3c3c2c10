package cryptox

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"golang.org/x/crypto/hkdf"
)

const tokenKeyInfo = "custody:session-key"

// TokenKey expands a high-entropy bearer token into an envelope key. Tokens
// already carry 256 bits, so HKDF replaces the slow password KDF here. The
// output is independent of common.HashToken, which is what gets persisted.
func TokenKey(token string) ([]byte, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrInvalidInput)
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(token), nil, []byte(tokenKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDerivationFailure, err)
	}
	return key, nil
}
