package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent() *models.AuditEvent {
	return &models.AuditEvent{
		ID:       "ev-1",
		WalletID: "w-1",
		Address:  "0xabc",
		Action:   models.AuditExportKey,
		Outcome:  models.OutcomeSuccess,
		Actor:    "wallet",
		At:       time.Date(2025, 3, 7, 23, 59, 0, 0, time.UTC),
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, NewLogSink(l).Record(context.Background(), newEvent()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "audit", line["module"])
	assert.Equal(t, models.AuditExportKey, line["action"])
	assert.Equal(t, "0xabc", line["address"])
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func newTestS3Sink(t *testing.T) (*S3Sink, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}

	orig := newS3ClientFromConfig
	t.Cleanup(func() { newS3ClientFromConfig = orig })

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		assert.Equal(t, "http://minio:9000", aws.ToString(o.BaseEndpoint))
		assert.True(t, o.UsePathStyle)
		return fake
	}

	return NewS3Sink(aws.Config{}, "audit-bucket", "http://minio:9000"), fake
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "audit/2025/03/07/ev-1.json", ObjectKey(newEvent()))
}

func TestS3Sink_Record(t *testing.T) {
	sink, fake := newTestS3Sink(t)

	require.NoError(t, sink.Record(context.Background(), newEvent()))
	assert.Equal(t, "audit-bucket", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "audit/2025/03/07/ev-1.json", aws.ToString(fake.in.Key))
	assert.Equal(t, "application/json", aws.ToString(fake.in.ContentType))

	var got models.AuditEvent
	require.NoError(t, json.Unmarshal(fake.body, &got))
	assert.Equal(t, *newEvent(), got)
}

func TestS3Sink_Error(t *testing.T) {
	sink, fake := newTestS3Sink(t)
	fake.err = errors.New("access denied")

	err := sink.Record(context.Background(), newEvent())
	assert.ErrorContains(t, err, "access denied")
}

type recordingSink struct {
	events []*models.AuditEvent
	err    error
}

func (r *recordingSink) Record(ctx context.Context, ev *models.AuditEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestMulti(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("b failed")}
	c := &recordingSink{}

	err := Multi{a, b, c}.Record(context.Background(), newEvent())
	assert.ErrorContains(t, err, "b failed")
	assert.Len(t, a.events, 1)
	assert.Len(t, c.events, 1)

	assert.NoError(t, Multi{a}.Record(context.Background(), newEvent()))
}
