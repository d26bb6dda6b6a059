package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes proofs under a directory served at /uploads.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir, urlPrefix: "/uploads/"}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	mimeType, body, err := sniff(r)
	if err != nil {
		return "", err
	}
	key := objectKey(name, mimeType, time.Now())
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.urlPrefix + key, nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.urlPrefix)
	if key == url || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
