package escrow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/cryptox"
	"golang.org/x/crypto/hkdf"
)

// Local seals with AES-256-GCM under a 32-byte operator key. Each blob is
// "local:<hex iv>:<hex ct>:<hex tag>". The address is mixed into the key (HKDF) so
// a blob copied to another wallet does not open.
type Local struct {
	key []byte
}

// NewLocal parses a 64-character hex operator key.
func NewLocal(hexKey string) (*Local, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: escrow key must be %d hex-encoded bytes", common.ErrInvalidInput, cryptox.KeySize)
	}
	return &Local{key: key}, nil
}

func (l *Local) addressKey(address string) ([]byte, error) {
	key := make([]byte, cryptox.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, l.key, nil, []byte("escrow:"+address)), key); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDerivationFailure, err)
	}
	return key, nil
}

func (l *Local) Seal(ctx context.Context, address string, privateKey []byte) (string, error) {
	key, err := l.addressKey(address)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	iv, err := cryptox.NewIV()
	if err != nil {
		return "", err
	}
	sealed, err := cryptox.Seal(privateKey, key, iv)
	if err != nil {
		return "", err
	}
	return wrap(schemeLocal, cryptox.EncodeIV(iv)+":"+sealed), nil
}

func (l *Local) Open(ctx context.Context, address string, blob string) ([]byte, error) {
	body, err := unwrap(schemeLocal, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIntegrityFailure, err)
	}
	ivHex, sealed, ok := strings.Cut(body, ":")
	if !ok {
		return nil, fmt.Errorf("%w: malformed escrow blob", common.ErrIntegrityFailure)
	}
	iv, err := cryptox.DecodeIV(ivHex)
	if err != nil {
		return nil, err
	}

	key, err := l.addressKey(address)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	return cryptox.Open(sealed, key, iv)
}
