package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore prefers ADC; credJSON is for local runs.
func NewGCSStore(ctx context.Context, bucket, credJSON string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	var (
		client *storage.Client
		err    error
	)
	if strings.TrimSpace(credJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, err
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %v", bucket, err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	mimeType, body, err := sniff(r)
	if err != nil {
		return "", err
	}
	key := objectKey(name, mimeType, time.Now())

	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = mimeType
	if _, err := io.Copy(wc, body); err != nil {
		wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

func (s *GCSStore) Delete(ctx context.Context, rawURL string) error {
	key := s.keyFromURL(rawURL)
	if key == "" {
		return fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// keyFromURL accepts gs://bucket/key and https://storage.googleapis.com/bucket/key.
func (s *GCSStore) keyFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "gs://") {
		parts := strings.SplitN(strings.TrimPrefix(rawURL, "gs://"), "/", 2)
		if len(parts) == 2 && parts[0] == s.bucket {
			return parts[1]
		}
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	p := strings.TrimPrefix(parsed.Path, "/")
	switch {
	case host == "storage.googleapis.com" || host == "storage.cloud.google.com":
		parts := strings.SplitN(p, "/", 2)
		if len(parts) == 2 && parts[0] == s.bucket {
			return parts[1]
		}
	case host == s.bucket+".storage.googleapis.com":
		return p
	}
	return ""
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
