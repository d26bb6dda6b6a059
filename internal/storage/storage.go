package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrForeignURL      = errors.New("url does not belong to this store")
)

// BlobStore keeps payment and return proof files (bukti transfer, nota retur).
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// sniff reads the head of r to detect its type and returns a reader that
// still yields the full content.
func sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	mimeType := http.DetectContentType(head)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if _, ok := allowedTypes[mimeType]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	return mimeType, io.MultiReader(strings.NewReader(string(head)), r), nil
}

// objectKey builds "proofs/2026/03/<uuid>-<name>.<ext>".
func objectKey(name, mimeType string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(name, "\\", "/")), path.Ext(name))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, base)
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("proofs/%s/%s-%s%s", now.Format("2006/01"), uuid.NewString(), base, allowedTypes[mimeType])
}
