package adapter

import (
	"bytes"
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type minioImageStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOImageStore connects to an S3 compatible endpoint and creates the
// bucket when it does not exist.
func NewMinIOImageStore(ctx context.Context, cfg MinIOConfig) (ImageStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, goerr.New("minio endpoint and bucket are required",
			goerr.V("endpoint", cfg.Endpoint), goerr.V("bucket", cfg.Bucket))
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create minio client", goerr.V("endpoint", cfg.Endpoint))
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check bucket", goerr.V("bucket", cfg.Bucket))
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, goerr.Wrap(err, "failed to create bucket", goerr.V("bucket", cfg.Bucket))
		}
	}

	return &minioImageStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *minioImageStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to put image", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}

	// public URL; private buckets need a presigned URL instead
	return s.client.EndpointURL().JoinPath(s.bucket, key).String(), nil
}

func (s *minioImageStore) Delete(ctx context.Context, uri string) error {
	key, ok := objectKey(s.client.EndpointURL().JoinPath(s.bucket).String(), uri)
	if !ok {
		return nil
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return goerr.Wrap(err, "failed to remove image", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	return nil
}
