package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// RecordingStore archives answer audio.
type RecordingStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
}

// MinioRecordingStore writes recordings to an S3-compatible bucket.
type MinioRecordingStore struct {
	client *minio.Client
	bucket string
}

// NewMinioRecordingStore connects and creates the bucket if it is missing.
func NewMinioRecordingStore(ctx context.Context, cfg StorageConfig) (*MinioRecordingStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		slog.Info("Recording bucket created", "bucket", cfg.Bucket)
	}

	return &MinioRecordingStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioRecordingStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload recording: %w", err)
	}
	slog.Info("Recording archived", "bucket", s.bucket, "key", key, "size", len(data))
	return nil
}

// recordingKey lays recordings out per student and session.
func recordingKey(studentID, sessionID string, position int, mimeType string) string {
	return fmt.Sprintf("%s/%s/%02d%s", studentID, sessionID, position+1, audioExtension(mimeType))
}
