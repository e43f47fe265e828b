package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-generator/internal/infrastructure/config"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStore(&config.ImageConfig{
		Dir:          t.TempDir(),
		BaseURL:      "/images",
		MaxSizeBytes: 1024,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return store
}

func TestStoreDurable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("fake png bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	store, err := NewStore(&config.ImageConfig{
		Dir:          dir,
		BaseURL:      "/images/",
		MaxSizeBytes: 1024,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)

	id := uuid.New()
	url, err := store.StoreDurable(context.Background(), srv.URL+"/pic", id)
	require.NoError(t, err)

	assert.Equal(t, "/images/"+id.String()+".png", url)
	data, err := os.ReadFile(filepath.Join(dir, id.String()+".png"))
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(data))
}

func TestStoreDurableRejectsBadURLs(t *testing.T) {
	store := newTestStore(t)

	_, err := store.StoreDurable(context.Background(), "", uuid.New())
	assert.Error(t, err)

	_, err = store.StoreDurable(context.Background(), "file:///etc/passwd", uuid.New())
	assert.Error(t, err)

	_, err = store.StoreDurable(context.Background(), "data:image/png;base64,AAAA", uuid.New())
	assert.Error(t, err)
}

func TestStoreDurableRejectsOversizedImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	store := newTestStore(t)
	_, err := store.StoreDurable(context.Background(), srv.URL+"/big", uuid.New())
	assert.Error(t, err)
}

func TestStoreDurableNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := newTestStore(t)
	_, err := store.StoreDurable(context.Background(), srv.URL+"/missing", uuid.New())
	assert.Error(t, err)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".png", extensionFor("image/png"))
	assert.Equal(t, ".webp", extensionFor("image/webp"))
	assert.Equal(t, ".gif", extensionFor("image/gif"))
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".jpg", extensionFor(""))
}
