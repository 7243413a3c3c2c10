// Package chain holds the blockchain specifics of custodial wallets:
// secp256k1 key generation, canonical EVM addresses and EIP-191 personal
// message signatures.
package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Keypair is a freshly generated account. PrivateKey is the raw 32-byte
// scalar; the caller must wipe it once sealed.
type Keypair struct {
	PrivateKey []byte
	Address    string
}

// GenerateKeypair draws a new secp256k1 key from crypto/rand.
func GenerateKeypair() (*Keypair, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDerivationFailure, err)
	}
	defer zeroKey(key)

	return &Keypair{
		PrivateKey: crypto.FromECDSA(key),
		Address:    canonical(crypto.PubkeyToAddress(key.PublicKey)),
	}, nil
}

// AddressFromPrivateKey returns the canonical address of a raw private key.
func AddressFromPrivateKey(priv []byte) (string, error) {
	key, err := crypto.ToECDSA(priv)
	if err != nil {
		return "", fmt.Errorf("%w: invalid private key", common.ErrIntegrityFailure)
	}
	defer zeroKey(key)
	return canonical(crypto.PubkeyToAddress(key.PublicKey)), nil
}

// NormalizeAddress validates a 0x-prefixed hex address and returns it in
// lowercase. Addresses are only ever compared in this form.
func NormalizeAddress(address string) (string, error) {
	a := strings.TrimSpace(address)
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		return "", fmt.Errorf("%w: address must be 0x-prefixed", common.ErrInvalidInput)
	}
	if !ethcommon.IsHexAddress(a) {
		return "", fmt.Errorf("%w: malformed address", common.ErrInvalidInput)
	}
	return "0x" + strings.ToLower(a[2:]), nil
}

// SignMessage produces a 65-byte [R || S || V] EIP-191 signature (V in
// {27, 28}) over message, hex encoded with 0x prefix.
func SignMessage(priv []byte, message []byte) (string, error) {
	key, err := crypto.ToECDSA(priv)
	if err != nil {
		return "", fmt.Errorf("%w: invalid private key", common.ErrIntegrityFailure)
	}
	defer zeroKey(key)

	sig, err := crypto.Sign(accounts.TextHash(message), key)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// VerifyMessage reports whether signature over message recovers to address.
func VerifyMessage(address string, message []byte, signature string) (bool, error) {
	want, err := NormalizeAddress(address)
	if err != nil {
		return false, err
	}
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return false, fmt.Errorf("%w: malformed signature", common.ErrInvalidInput)
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return false, nil
	}
	return canonical(crypto.PubkeyToAddress(*pub)) == want, nil
}

func canonical(a ethcommon.Address) string {
	return strings.ToLower(a.Hex())
}

// zeroKey clears the scalar held by an ecdsa key once it is no longer needed.
func zeroKey(k *ecdsa.PrivateKey) {
	if k != nil && k.D != nil {
		k.D.SetInt64(0)
	}
}
