package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ayush/blog-platform/internal/apperror"
)

// CoverStore keeps blog cover images in a MinIO bucket.
type CoverStore struct {
	client *minio.Client
	bucket string
}

func NewCoverStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*CoverStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("cover store: client for %s: %w", endpoint, err)
	}
	s := &CoverStore{client: client, bucket: bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("cover store: %w", err)
	}
	return s, nil
}

// ensureBucket creates the cover bucket on first start.
func (s *CoverStore) ensureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if found {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

func coverKey(blogID string) string {
	return "covers/" + blogID
}

// PutCover stores data as the cover of blogID, replacing any previous one.
func (s *CoverStore) PutCover(ctx context.Context, blogID string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, coverKey(blogID), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return apperror.NewPersistence("Cover upload error", fmt.Errorf("cover store: put %s: %w", blogID, err))
	}
	return nil
}

// GetCover returns the cover bytes and content type of blogID.
func (s *CoverStore) GetCover(ctx context.Context, blogID string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, coverKey(blogID), minio.GetObjectOptions{})
	if err != nil {
		return nil, "", coverError(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, "", coverError(err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", coverError(err)
	}
	return data, info.ContentType, nil
}

// RemoveCover deletes the cover of blogID. A missing cover is not an error.
func (s *CoverStore) RemoveCover(ctx context.Context, blogID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, coverKey(blogID), minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	if err = coverError(err); apperror.IsNotFound(err) {
		return nil
	}
	return err
}

func coverError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return apperror.NewNotFound("Cover not found")
	}
	return apperror.NewPersistence("Cover storage error", fmt.Errorf("cover store: %w", err))
}
