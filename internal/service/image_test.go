package service_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/backend/internal/service"
)

func TestDecodeBase64Image(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))

	t.Run("data URI with media type", func(t *testing.T) {
		data, contentType, err := service.DecodeBase64Image("data:image/jpeg;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", contentType)
		assert.Equal(t, []byte("fake image bytes"), data)
	})

	t.Run("raw base64 defaults to png", func(t *testing.T) {
		_, contentType, err := service.DecodeBase64Image(payload)
		require.NoError(t, err)
		assert.Equal(t, "image/png", contentType)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, _, err := service.DecodeBase64Image("data:image/png;base64,@@@not-base64@@@")
		assert.Error(t, err)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, _, err := service.DecodeBase64Image("data:image/png;base64,")
		assert.Error(t, err)
	})
}

func TestLocalImageStore(t *testing.T) {
	dir := t.TempDir()
	store := service.NewLocalImageStore(dir, "/media")

	url, err := store.Save(context.Background(), []byte("fake image bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/media/recipe-images/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	written, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/media/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake image bytes"), written)
}
