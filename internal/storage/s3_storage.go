package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/BerylCAtieno/invoice-checker/internal/config"
)

// ErrNotFound is returned by Download for a key with no object.
var ErrNotFound = errors.New("object not found")

// Object is an archived document with the name and type it was uploaded with.
type Object struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Storage archives the documents submitted for comparison.
type Storage interface {
	Upload(ctx context.Context, key string, obj Object) error
	Download(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// filenameMeta carries the original filename, path-escaped since S3 metadata
// travels as HTTP headers.
const filenameMeta = "Filename"

type s3Storage struct {
	client     *minio.Client
	bucketName string
}

func NewS3Storage(ctx context.Context, cfg *config.Config) (Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.S3BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &s3Storage{
		client:     client,
		bucketName: cfg.S3BucketName,
	}, nil
}

// ObjectKey places a document under its comparison run and form field, e.g.
// comparisons/<id>/invoice1.
func ObjectKey(comparisonID, field string) string {
	return path.Join("comparisons", comparisonID, field)
}

func (s *s3Storage) Upload(ctx context.Context, key string, obj Object) error {
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(
		ctx,
		s.bucketName,
		key,
		bytes.NewReader(obj.Data),
		int64(len(obj.Data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: map[string]string{filenameMeta: url.PathEscape(obj.Filename)},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func (s *s3Storage) Download(ctx context.Context, key string) (*Object, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	// GetObject is lazy; Stat is the first request that can report a missing key.
	info, err := object.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat S3 object: %w", err)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(object); err != nil {
		return nil, fmt.Errorf("failed to read object data: %w", err)
	}

	return &Object{
		Filename:    metadataFilename(info.UserMetadata),
		ContentType: info.ContentType,
		Data:        buf.Bytes(),
	}, nil
}

func metadataFilename(meta map[string]string) string {
	for k, v := range meta {
		if strings.EqualFold(k, filenameMeta) || strings.EqualFold(k, "X-Amz-Meta-"+filenameMeta) {
			if name, err := url.PathUnescape(v); err == nil {
				return name
			}
			return v
		}
	}
	return ""
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
