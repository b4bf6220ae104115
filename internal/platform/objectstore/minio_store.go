// Package objectstore implements the photo blob store on a MinIO
// (S3-compatible) backend.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/openmotors/car-users-api/internal/store"
)

// Config holds the connection settings for the MinIO backend.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioPhotoStore persists photos as objects in a single bucket, one object
// per entity prefix.
type MinioPhotoStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

var _ store.PhotoStore = (*MinioPhotoStore)(nil)

// NewMinioPhotoStore connects to the MinIO endpoint and ensures the bucket
// exists, creating it when missing.
func NewMinioPhotoStore(ctx context.Context, cfg Config, logger *slog.Logger) (*MinioPhotoStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioPhotoStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With(slog.String("component", "photo_store")),
	}, nil
}

// Put implements store.PhotoStore.Put
func (s *MinioPhotoStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	// Stale extension variants are removed only after the upload
	// succeeded, so a failed upload never leaves the entity photoless.
	// The prefix keeps the extension delimiter: "users/user_1." must not
	// match "users/user_12.jpg".
	prefix := strings.TrimSuffix(key, extension(key)) + "."
	if err := s.removePrefix(ctx, prefix, key); err != nil {
		return err
	}

	s.logger.Debug("photo stored", slog.String("key", key))
	return nil
}

// Get implements store.PhotoStore.Get
func (s *MinioPhotoStore) Get(ctx context.Context, prefix string) (*store.PhotoObject, error) {
	key, err := s.findKey(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, store.ErrPhotoNotFound
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy; Stat forces the first request and surfaces a
	// missing object before the caller starts streaming.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, store.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return &store.PhotoObject{
		Key:         key,
		ContentType: info.ContentType,
		Size:        info.Size,
		Body:        obj,
	}, nil
}

// Remove implements store.PhotoStore.Remove
func (s *MinioPhotoStore) Remove(ctx context.Context, prefix string) error {
	return s.removePrefix(ctx, prefix, "")
}

// findKey returns the key of the single object under the entity prefix, or
// "" when none exists.
func (s *MinioPhotoStore) findKey(ctx context.Context, prefix string) (string, error) {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return "", fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		return obj.Key, nil
	}
	return "", nil
}

// removePrefix deletes every object under the prefix except keep. Missing
// objects are not an error.
func (s *MinioPhotoStore) removePrefix(ctx context.Context, prefix, keep string) error {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if obj.Key == keep {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete object: %w", err)
		}
	}
	return nil
}

func extension(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i:]
	}
	return ""
}
