package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())
}

func TestCodec_BytesTravelAsBase64(t *testing.T) {
	c := jsonCodec{}

	b, err := c.Marshal(&CreateWalletRequest{Email: "a@b", Password: []byte("pw")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b","password":"cHc="}`, string(b))

	var got CreateWalletRequest
	require.NoError(t, c.Unmarshal(b, &got))
	assert.Equal(t, []byte("pw"), got.Password)
}

func TestCodec_EmptyPayload(t *testing.T) {
	var e Empty
	assert.NoError(t, jsonCodec{}.Unmarshal(nil, &e))
}

func TestCodec_Errors(t *testing.T) {
	_, err := jsonCodec{}.Marshal(func() {})
	assert.Error(t, err)

	var resp WalletInfo
	assert.Error(t, jsonCodec{}.Unmarshal([]byte("{"), &resp))
}

func TestCodec_Times(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b, err := jsonCodec{}.Marshal(&SessionResponse{Address: "0xab", ExpiresAt: at})
	require.NoError(t, err)

	var got SessionResponse
	require.NoError(t, jsonCodec{}.Unmarshal(b, &got))
	assert.True(t, at.Equal(got.ExpiresAt))
}

func TestServiceDesc_CoversEveryMethod(t *testing.T) {
	assert.Equal(t, "/custody.v1.Custody/Ping", FullMethod(MethodPing))

	seen := map[string]bool{}
	for _, m := range ServiceDesc.Methods {
		assert.False(t, seen[m.MethodName], "duplicate %s", m.MethodName)
		seen[m.MethodName] = true
	}
	assert.Len(t, seen, 14)
}
