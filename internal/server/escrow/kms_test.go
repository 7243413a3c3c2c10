package escrow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKMS "encrypts" by reversing the plaintext and checks the encryption
// context on decrypt like the real service does.
type fakeKMS struct {
	lastEncrypt *kms.EncryptInput
	contexts    map[string]string
	encryptErr  error
	decryptErr  error
}

func (f *fakeKMS) Encrypt(ctx context.Context, in *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error) {
	if f.encryptErr != nil {
		return nil, f.encryptErr
	}
	f.lastEncrypt = in
	ct := reverse(in.Plaintext)
	if f.contexts == nil {
		f.contexts = map[string]string{}
	}
	f.contexts[string(ct)] = in.EncryptionContext["address"]
	return &kms.EncryptOutput{CiphertextBlob: ct, KeyId: in.KeyId}, nil
}

func (f *fakeKMS) Decrypt(ctx context.Context, in *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}
	if f.contexts[string(in.CiphertextBlob)] != in.EncryptionContext["address"] {
		return nil, &types.InvalidCiphertextException{Message: aws.String("context mismatch")}
	}
	return &kms.DecryptOutput{Plaintext: reverse(in.CiphertextBlob)}, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

func newTestKMS(t *testing.T) (*KMS, *fakeKMS) {
	t.Helper()
	fake := &fakeKMS{}

	orig := newKMSClientFromConfig
	t.Cleanup(func() { newKMSClientFromConfig = orig })

	var endpoint string
	newKMSClientFromConfig = func(cfg aws.Config, optFns ...func(*kms.Options)) kmsAPI {
		var o kms.Options
		for _, fn := range optFns {
			fn(&o)
		}
		endpoint = aws.ToString(o.BaseEndpoint)
		return fake
	}

	k := NewKMS(aws.Config{}, "alias/custody", "http://localstack:4566")
	assert.Equal(t, "http://localstack:4566", endpoint)
	return k, fake
}

func TestKMS_RoundTrip(t *testing.T) {
	k, fake := newTestKMS(t)
	ctx := context.Background()

	blob, err := k.Seal(ctx, "0xabc", []byte("private"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(blob, "kms:"))
	assert.Equal(t, "alias/custody", aws.ToString(fake.lastEncrypt.KeyId))
	assert.Equal(t, map[string]string{"address": "0xabc"}, fake.lastEncrypt.EncryptionContext)

	got, err := k.Open(ctx, "0xabc", blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("private"), got)
}

func TestKMS_ContextMismatchIsIntegrityFailure(t *testing.T) {
	k, _ := newTestKMS(t)
	ctx := context.Background()

	blob, err := k.Seal(ctx, "0xabc", []byte("private"))
	require.NoError(t, err)

	_, err = k.Open(ctx, "0xdef", blob)
	assert.ErrorIs(t, err, common.ErrIntegrityFailure)
}

func TestKMS_ServiceErrorsAreTransient(t *testing.T) {
	k, fake := newTestKMS(t)
	ctx := context.Background()

	fake.encryptErr = errors.New("throttled")
	_, err := k.Seal(ctx, "0xabc", []byte("private"))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	fake.decryptErr = errors.New("throttled")
	_, err = k.Open(ctx, "0xabc", "kms:AAAA")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestKMS_MalformedBlobs(t *testing.T) {
	k, _ := newTestKMS(t)

	for _, blob := range []string{"", "local:aa:bb:cc", "kms:***"} {
		_, err := k.Open(context.Background(), "0xabc", blob)
		assert.ErrorIs(t, err, common.ErrIntegrityFailure, "blob %q", blob)
	}
}
