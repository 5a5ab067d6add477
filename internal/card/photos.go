package card

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// MinioPhotoStore keeps citizen photos in an object bucket, keyed by the
// profile's photo key.
type MinioPhotoStore struct {
	client *minio.Client
	bucket string
}

func NewMinioPhotoStore(client *minio.Client, bucket string) *MinioPhotoStore {
	return &MinioPhotoStore{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioPhotoStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check photo bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create photo bucket: %w", err)
	}
	return nil
}

func (s *MinioPhotoStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get photo %q: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxAssetBytes))
	if err != nil {
		return nil, fmt.Errorf("read photo %q: %w", key, err)
	}
	return data, nil
}

// Put stores a photo under key with the given content type.
func (s *MinioPhotoStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put photo %q: %w", key, err)
	}
	return nil
}
