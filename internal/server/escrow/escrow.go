// Package escrow keeps an operator-held copy of every wallet's private key so
// that a recovery reset can reseal it under the new password. The sealed
// copy is bound to the wallet address.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Escrow seals and opens private keys with an operator-held key.
type Escrow interface {
	Seal(ctx context.Context, address string, privateKey []byte) (string, error)
	Open(ctx context.Context, address string, sealed string) ([]byte, error)
}

// Blobs are prefixed with the scheme that produced them.
const (
	schemeLocal = "local"
	schemeKMS   = "kms"
)

var errScheme = errors.New("escrow blob scheme mismatch")

func wrap(scheme, body string) string {
	return scheme + ":" + body
}

func unwrap(scheme, blob string) (string, error) {
	prefix, body, ok := strings.Cut(blob, ":")
	if !ok || prefix != scheme {
		return "", fmt.Errorf("%w: want %s", errScheme, scheme)
	}
	return body, nil
}
