package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"interview-assistant/internal/config"
	"interview-assistant/internal/logger"
	"interview-assistant/internal/tracing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var minioTracer = otel.Tracer("interview-assistant/storage/minio")

// RecordingPrefix is the key prefix of interview recordings; it matches the
// upload folder of the recording endpoint.
const RecordingPrefix = "recordings/"

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStorage stores uploaded files.
type ObjectStorage interface {
	// Put streams r into key and returns the MD5 of the bytes written.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Get opens key for reading; ErrNotFound when absent.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes key; ErrNotFound when absent.
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

var _ ObjectStorage = (*MinIO)(nil)

// MinIO is the S3-compatible ObjectStorage.
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
	log    zerolog.Logger
}

// NewMinIO connects, ensures the bucket and installs the recording expiry rule.
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("minio config is nil")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("minio bucketName is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	m := &MinIO{client: client, cfg: cfg, bucket: cfg.BucketName, log: logger.Component("minio")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}
	if cfg.RecordingExpireDays > 0 {
		if err := m.expireRecordings(ctx, cfg.RecordingExpireDays); err != nil {
			m.log.Warn().Err(err).Msg("failed to set recording lifecycle rule")
		}
	}
	m.log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", m.bucket).Msg("MinIO client initialized")
	return m, nil
}

func (m *MinIO) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	m.log.Info().Str("bucket", m.bucket).Msg("bucket created")
	return nil
}

func (m *MinIO) expireRecordings(ctx context.Context, days int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{{
		ID:         "expire-recordings",
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: RecordingPrefix},
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
	}}
	return m.client.SetBucketLifecycle(ctx, m.bucket, lc)
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

func (m *MinIO) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return minioTracer.Start(ctx, "MinIO."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.bucket", m.bucket),
			attribute.String("storage.key", key),
		))
}

func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	ctx, span := m.startSpan(ctx, "Put", key)
	defer span.End()

	hash := md5.New()
	info, err := m.client.PutObject(ctx, m.bucket, key, io.TeeReader(r, hash), size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	sum := hex.EncodeToString(hash.Sum(nil))
	span.SetAttributes(attribute.Int64("storage.size", info.Size))
	m.log.Debug().Str("key", key).Int64("size", info.Size).Str("md5", sum).Msg("object stored")
	return sum, nil
}

func (m *MinIO) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := m.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	return obj, info, nil
}

func (m *MinIO) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	ctx, span := m.startSpan(ctx, "Stat", key)
	defer span.End()

	st, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return ObjectInfo{}, ErrNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return ObjectInfo{Key: key, Size: st.Size, ContentType: st.ContentType, LastModified: st.LastModified}, nil
}

func (m *MinIO) Delete(ctx context.Context, key string) error {
	if _, err := m.Stat(ctx, key); err != nil {
		return err
	}
	ctx, span := m.startSpan(ctx, "Delete", key)
	defer span.End()
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (m *MinIO) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = time.Duration(m.cfg.PresignExpiryMinutes) * time.Minute
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
