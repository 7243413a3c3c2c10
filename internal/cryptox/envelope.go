package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", common.ErrInvalidInput, KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// Seal encrypts plaintext under key/iv with AES-256-GCM and returns
// "hex(ciphertext):hex(tag)". An iv must never be passed to Seal twice.
func Seal(plaintext, key, iv []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", fmt.Errorf("%w: empty plaintext", common.ErrInvalidInput)
	}
	if len(iv) != IVSize {
		return "", fmt.Errorf("%w: iv must be %d bytes", common.ErrInvalidInput, IVSize)
	}
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	out := aead.Seal(nil, iv, plaintext, nil)
	split := len(out) - aead.Overhead()
	sealed := hex.EncodeToString(out[:split]) + ":" + hex.EncodeToString(out[split:])
	common.WipeByteArray(out)
	return sealed, nil
}

// Open reverses Seal. Any malformed input, wrong key or modified byte yields
// common.ErrIntegrityFailure; partial plaintext is never returned.
func Open(sealed string, key, iv []byte) ([]byte, error) {
	ctHex, tagHex, ok := strings.Cut(sealed, ":")
	if !ok {
		return nil, fmt.Errorf("%w: malformed envelope", common.ErrIntegrityFailure)
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext", common.ErrIntegrityFailure)
	}
	tag, err := hex.DecodeString(tagHex)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed tag", common.ErrIntegrityFailure)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", common.ErrIntegrityFailure, IVSize)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(tag) != aead.Overhead() {
		return nil, fmt.Errorf("%w: malformed tag", common.ErrIntegrityFailure)
	}

	plaintext, err := aead.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return nil, common.ErrIntegrityFailure
	}
	return plaintext, nil
}
