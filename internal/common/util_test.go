package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	assert.Len(t, s, n*2)
	_, err = hex.DecodeString(s)
	assert.NoError(t, err)
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestGenerateRandByteArray_Distinct(t *testing.T) {
	a, err := GenerateRandByteArray(32)
	require.NoError(t, err)
	b, err := GenerateRandByteArray(32)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)
	WipeByteArray(nil)
}

func TestHashToken_StableHex(t *testing.T) {
	h1 := HashToken("abc")
	h2 := HashToken("abc")
	assert.Equal(t, h1, h2)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h1)
	assert.NotEqual(t, h1, HashToken("abd"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}

func TestPublicMessage_AuthKindsIndistinguishable(t *testing.T) {
	kinds := []error{ErrInvalidCredentials, ErrEmailNotFound, ErrInvalidSession, ErrInvalidOrExpiredToken, ErrWalletInactive}
	for _, k := range kinds {
		wrapped := fmt.Errorf("lookup of secret-email@x.io: %w", k)
		assert.Equal(t, "invalid credentials", PublicMessage(wrapped))
		assert.True(t, IsAuthFailure(wrapped))
	}
}

func TestPublicMessage_UnknownCollapsesToInternal(t *testing.T) {
	assert.Equal(t, "internal error", PublicMessage(errors.New("pq: password=hunter2")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("x: %w", ErrStoreUnavailable)))
	assert.True(t, IsTransient(ErrBusy))
	assert.True(t, IsTransient(ErrVersionConflict))
	assert.False(t, IsTransient(ErrIntegrityFailure))
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: " Alice@Example.COM ", want: "alice@example.com"},
		{in: "a@b", want: "a@b"},
		{in: "", wantErr: true},
		{in: "no-at-sign", wantErr: true},
		{in: "@example.com", wantErr: true},
		{in: "alice@", wantErr: true},
		{in: "a@b@c", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateEmail(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
