package cryptox

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	k1, err := DeriveKey([]byte("secret-password"), []byte("fixed-salt"), 1000)
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("secret-password"), []byte("fixed-salt"), 1000)
	require.NoError(t, err)

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
}

func TestDeriveKey_DifferentSaltsDiffer(t *testing.T) {
	k1, err := DeriveKey([]byte("secret-password"), []byte("salt-1"), 1000)
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("secret-password"), []byte("salt-2"), 1000)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestDeriveKey_RejectsEmptyInput(t *testing.T) {
	_, err := DeriveKey(nil, []byte("salt"), 1000)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = DeriveKey([]byte("pw"), nil, 1000)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestDeriveKey_RejectsZeroIterations(t *testing.T) {
	_, err := DeriveKey([]byte("pw"), []byte("salt"), 0)
	assert.True(t, errors.Is(err, common.ErrDerivationFailure))
}

func TestNewIV_FreshEachCall(t *testing.T) {
	a, err := NewIV()
	require.NoError(t, err)
	b, err := NewIV()
	require.NoError(t, err)
	assert.Len(t, a, IVSize)
	assert.NotEqual(t, a, b)
}

func TestNewSalt_HexOfSaltSize(t *testing.T) {
	s, err := NewSalt()
	require.NoError(t, err)
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, SaltSize)
}

func TestDecodeIV(t *testing.T) {
	iv, err := NewIV()
	require.NoError(t, err)

	got, err := DecodeIV(EncodeIV(iv))
	require.NoError(t, err)
	assert.Equal(t, iv, got)

	_, err = DecodeIV("zz")
	assert.True(t, errors.Is(err, common.ErrIntegrityFailure))
	_, err = DecodeIV("abcd")
	assert.True(t, errors.Is(err, common.ErrIntegrityFailure))
}
