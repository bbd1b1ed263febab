// Package storage holds uploaded report media.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MediaBucket is the bucket report attachments are written to.
const MediaBucket = "civic-media"

var ErrInvalidPath = errors.New("invalid object path")

type MediaStore interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error)
}

// LocalMediaStore keeps objects under root/<bucket>/<objectPath> and serves them from baseURL.
type LocalMediaStore struct {
	root    string
	baseURL string
}

func NewLocalMediaStore(root, baseURL string) (*LocalMediaStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalMediaStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalMediaStore) Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error) {
	key, err := cleanKey(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// cleanKey joins bucket and path, rejecting anything that escapes the bucket.
func cleanKey(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, "/\\") || bucket == "." || bucket == ".." {
		return "", ErrInvalidPath
	}
	if objectPath == "" || strings.Contains(objectPath, "\\") || strings.HasPrefix(objectPath, "/") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(objectPath)
	if cleaned != objectPath || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidPath
	}
	return bucket + "/" + cleaned, nil
}
