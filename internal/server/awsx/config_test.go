package awsx

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOptions(t *testing.T) *awsconfig.LoadOptions {
	t.Helper()

	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	lo := &awsconfig.LoadOptions{}
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			if err := fn(lo); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: lo.Region}, nil
	}
	return lo
}

func TestLoad_StaticCredentials(t *testing.T) {
	lo := captureOptions(t)

	cfg, err := Load(context.Background(), Options{Region: "eu-west-1", AccessKeyID: "AKIA", SecretAccessKey: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	require.NotNil(t, lo.Credentials)

	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestLoad_DefaultChain(t *testing.T) {
	lo := captureOptions(t)

	_, err := Load(context.Background(), Options{Region: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, lo.Credentials)
}

func TestLoad_Error(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := Load(context.Background(), Options{})
	assert.EqualError(t, err, "load-fail")
}
