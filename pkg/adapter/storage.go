package adapter

import (
	"context"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// ImageStore keeps captured images outside the history documents. Put
// returns a URI that is stored in HistoryItem.Image. Delete ignores URIs
// that the store did not issue, such as inline data URIs.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, uri string) error
}

// objectKey returns the object key of uri when it lives under base.
func objectKey(base, uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, strings.TrimSuffix(base, "/")+"/")
	if !ok || rest == "" {
		return "", false
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return key, true
}

// gcsImageStore implements ImageStore using Cloud Storage
type gcsImageStore struct {
	bucketName string
	client     *storage.Client
}

// NewGCSImageStore creates a new Cloud Storage backed image store
func NewGCSImageStore(ctx context.Context, bucketName string) (ImageStore, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &gcsImageStore{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *gcsImageStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	writer := s.client.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", goerr.Wrap(err, "failed to write image", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}
	if err := writer.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize image", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}

	return gcsObjectURL(s.bucketName, key), nil
}

func (s *gcsImageStore) Delete(ctx context.Context, uri string) error {
	key, ok := objectKey(gcsObjectURL(s.bucketName, ""), uri)
	if !ok {
		return nil
	}

	if err := s.client.Bucket(s.bucketName).Object(key).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete image", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}
	return nil
}

func gcsObjectURL(bucket, key string) string {
	u := url.URL{Scheme: "https", Host: "storage.googleapis.com"}
	return u.JoinPath(bucket, key).String()
}
