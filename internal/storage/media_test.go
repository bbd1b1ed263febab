package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalMediaStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalMediaStore(dir, "http://localhost:8080/media/")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), MediaBucket, "anonymous/1700000000000-abc.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/civic-media/anonymous/1700000000000-abc.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "civic-media", "anonymous", "1700000000000-abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = store.Upload(context.Background(), MediaBucket, "anonymous/1700000000000-abc.png", strings.NewReader("again"))
	assert.Error(t, err)
}

func TestLocalMediaStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalMediaStore(t.TempDir(), "/media")
	require.NoError(t, err)

	for _, p := range []string{"../escape.png", "a/../../escape.png", "/abs.png", "", "a//b.png", `a\b.png`} {
		_, err := store.Upload(context.Background(), MediaBucket, p, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}

	_, err = store.Upload(context.Background(), "../etc", "x.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
}
