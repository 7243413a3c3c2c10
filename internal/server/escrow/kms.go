package escrow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
)

// kmsAPI is the subset of *kms.Client used here.
type kmsAPI interface {
	Encrypt(ctx context.Context, in *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, in *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

var newKMSClientFromConfig = func(cfg aws.Config, optFns ...func(*kms.Options)) kmsAPI {
	return kms.NewFromConfig(cfg, optFns...)
}

// KMS seals with an AWS KMS key. The wallet address is passed as encryption
// context, so KMS refuses to decrypt a blob under a different address.
// Blobs are "kms:<base64 ciphertext blob>".
type KMS struct {
	client kmsAPI
	keyID  string
}

// NewKMS builds a KMS escrow from cfg. A non-empty endpoint overrides the
// service URL (for LocalStack and similar).
func NewKMS(cfg aws.Config, keyID string, endpoint string) *KMS {
	client := newKMSClientFromConfig(cfg, func(o *kms.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &KMS{client: client, keyID: keyID}
}

func encryptionContext(address string) map[string]string {
	return map[string]string{"address": address}
}

func (k *KMS) Seal(ctx context.Context, address string, privateKey []byte) (string, error) {
	out, err := k.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:             aws.String(k.keyID),
		Plaintext:         privateKey,
		EncryptionContext: encryptionContext(address),
	})
	if err != nil {
		return "", fmt.Errorf("%w: kms encrypt: %v", common.ErrStoreUnavailable, err)
	}
	return wrap(schemeKMS, base64.StdEncoding.EncodeToString(out.CiphertextBlob)), nil
}

func (k *KMS) Open(ctx context.Context, address string, blob string) ([]byte, error) {
	body, err := unwrap(schemeKMS, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIntegrityFailure, err)
	}
	ct, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed escrow blob", common.ErrIntegrityFailure)
	}

	out, err := k.client.Decrypt(ctx, &kms.DecryptInput{
		KeyId:             aws.String(k.keyID),
		CiphertextBlob:    ct,
		EncryptionContext: encryptionContext(address),
	})
	if err != nil {
		var invalid *types.InvalidCiphertextException
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf("%w: kms rejected escrow blob", common.ErrIntegrityFailure)
		}
		return nil, fmt.Errorf("%w: kms decrypt: %v", common.ErrStoreUnavailable, err)
	}
	return out.Plaintext, nil
}
