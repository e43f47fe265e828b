package image

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
)

// Store copies transient image references into durable storage. All methods
// are best effort: a failed copy leaves the transient reference in place.
type Store interface {
	StoreDurable(ctx context.Context, transientURL string, recordID uuid.UUID) (string, error)
}

type localStore struct {
	config *config.ImageConfig
	client *resty.Client
}

// NewStore creates a filesystem-backed image store.
func NewStore(cfg *config.ImageConfig) (Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &localStore{
		config: cfg,
		client: client,
	}, nil
}

// StoreDurable downloads the transient URL and writes it under the durable
// image directory, returning the served URL. No retry on failure.
func (s *localStore) StoreDurable(ctx context.Context, transientURL string, recordID uuid.UUID) (string, error) {
	if transientURL == "" {
		return "", fmt.Errorf("empty transient url")
	}
	if !strings.HasPrefix(transientURL, "http://") && !strings.HasPrefix(transientURL, "https://") {
		return "", fmt.Errorf("unsupported image url scheme")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		Get(transientURL)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("image download returned status %d", resp.StatusCode())
	}

	body := resp.Body()
	if int64(len(body)) > s.config.MaxSizeBytes {
		return "", fmt.Errorf("image exceeds size limit: %d bytes", len(body))
	}

	filename := recordID.String() + extensionFor(resp.Header().Get("Content-Type"))
	path := filepath.Join(s.config.Dir, filename)
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	durableURL := strings.TrimRight(s.config.BaseURL, "/") + "/" + filename
	common.LogDebug("stored durable image",
		zap.String("record_id", recordID.String()),
		zap.String("durable_url", durableURL),
		zap.Int("size_bytes", len(body)),
	)
	return durableURL, nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}
