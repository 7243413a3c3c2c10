package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
)

// s3API is the subset of *s3.Client used here.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
	return s3.NewFromConfig(cfg, optFns...)
}

// S3Sink archives each event as one JSON object under
// audit/YYYY/MM/DD/<id>.json.
type S3Sink struct {
	client s3API
	bucket string
}

// NewS3Sink builds a sink writing to bucket. A non-empty endpoint selects an
// S3-compatible service (MinIO) with path-style addressing.
func NewS3Sink(cfg aws.Config, bucket string, endpoint string) *S3Sink {
	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Sink{client: client, bucket: bucket}
}

// ObjectKey returns the object key for ev.
func ObjectKey(ev *models.AuditEvent) string {
	d := ev.At.UTC()
	return fmt.Sprintf("audit/%04d/%02d/%02d/%s.json", d.Year(), d.Month(), d.Day(), ev.ID)
}

func (s *S3Sink) Record(ctx context.Context, ev *models.AuditEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ObjectKey(ev)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("audit put object: %w", err)
	}
	return nil
}
