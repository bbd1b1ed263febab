package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// allowedMedia are the top-level MIME types accepted as report attachments.
var allowedMedia = []string{"image/", "video/", "audio/"}

type MediaService struct {
	store    storage.MediaStore
	maxBytes int64
	now      func() time.Time
}

func NewMediaService(store storage.MediaStore, maxBytes int64) *MediaService {
	return &MediaService{store: store, maxBytes: maxBytes, now: time.Now}
}

// Upload sniffs the content type, stores the file under the owner's folder
// and returns its public URL.
func (s *MediaService) Upload(ctx context.Context, actor Actor, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		metrics.MediaUploadsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		metrics.MediaUploadsTotal.WithLabelValues("rejected").Inc()
		return "", invalid("file", fmt.Sprintf("%s exceeds the %d MB limit", filename, s.maxBytes>>20))
	}
	if len(data) == 0 {
		metrics.MediaUploadsTotal.WithLabelValues("rejected").Inc()
		return "", invalid("file", filename+" is empty")
	}

	mtype := mimetype.Detect(data)
	if !isAllowedMedia(mtype.String()) {
		metrics.MediaUploadsTotal.WithLabelValues("rejected").Inc()
		return "", invalid("file", fmt.Sprintf("%s has unsupported type %s", filename, mtype.String()))
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	owner := actor.UserID
	if owner == "" {
		owner = "anonymous"
	}
	objectPath := fmt.Sprintf("%s/%d-%s%s", owner, s.now().UnixMilli(), uuid.NewString(), ext)

	url, err := s.store.Upload(ctx, storage.MediaBucket, objectPath, bytes.NewReader(data))
	if err != nil {
		metrics.MediaUploadsTotal.WithLabelValues("error").Inc()
		return "", &StoreError{Op: "upload media", Err: err}
	}

	metrics.MediaUploadsTotal.WithLabelValues("stored").Inc()
	logger.WithUser(actor.UserID).WithFields(map[string]interface{}{
		"path": objectPath,
		"type": mtype.String(),
		"size": len(data),
	}).Info("Media uploaded")
	return url, nil
}

func isAllowedMedia(mime string) bool {
	for _, prefix := range allowedMedia {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return false
}
