package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists uploaded files under slash-separated keys.
type FileStore interface {
	// Save writes r under key and returns the public URL of the stored file.
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// URL returns the public URL of key.
	URL(key string) string
}

// Stored describes a file written by SaveUpload.
type Stored struct {
	Key string
	URL string
}

// SaveUpload stores a multipart file under prefix with a random name that
// keeps the original extension.
func SaveUpload(ctx context.Context, store FileStore, prefix string, fh *multipart.FileHeader) (Stored, error) {
	src, err := fh.Open()
	if err != nil {
		return Stored{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := path.Join(prefix, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	url, err := store.Save(ctx, key, src, fh.Header.Get("Content-Type"))
	if err != nil {
		return Stored{}, err
	}
	return Stored{Key: key, URL: url}, nil
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return cleaned, nil
}
