package storage

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements BlobStore using a MinIO (or any S3-compatible) backend.
// Object keys are generated uuids, so an originally supplied filename never
// collides with another upload's key.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a MinIO client, ensures the bucket exists, and returns
// a ready-to-use MinioStore.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Printf("storage: created bucket %q", bucket)
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// Write streams reader to MinIO under a new uuid key. size must be the exact
// byte count (pass -1 only if the size is genuinely unknown — MinIO will
// buffer it). PutObject returns only after the object is fully persisted, and
// a failed put leaves no object behind.
func (s *MinioStore) Write(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	objectID := uuid.NewString()
	_, err := s.client.PutObject(ctx, s.bucket, objectID, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", objectID, err)
	}
	return objectID, nil
}

// Read stats the object first so a missing id surfaces as ErrNotFound before
// any bytes are streamed, then opens a lazy download stream.
func (s *MinioStore) Read(ctx context.Context, objectID string) (io.ReadCloser, BlobInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, objectID, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, BlobInfo{}, ErrNotFound
		}
		return nil, BlobInfo{}, fmt.Errorf("stat object %q: %w", objectID, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectID, minio.GetObjectOptions{})
	if err != nil {
		return nil, BlobInfo{}, fmt.Errorf("get object %q: %w", objectID, err)
	}

	info := BlobInfo{
		ObjectID:    objectID,
		ContentType: stat.ContentType,
		Size:        stat.Size,
		CreatedAt:   stat.LastModified,
	}
	return obj, info, nil
}

// Delete removes the object. MinIO's RemoveObject succeeds silently for
// missing keys, so we stat first to report ErrNotFound per the contract.
func (s *MinioStore) Delete(ctx context.Context, objectID string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, objectID, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return ErrNotFound
		}
		return fmt.Errorf("stat object %q: %w", objectID, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", objectID, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}
