package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fotokeramika/models"
	"fotokeramika/utils"
)

// DefaultPublicPrefix is the URL path the local upload directory is served under
const DefaultPublicPrefix = "/uploads/"

// LocalStorage writes uploads into a directory served by the HTTP router
type LocalStorage struct {
	dir          string
	publicPrefix string
	baseURL      string
	now          func() time.Time
}

var _ AssetStorage = (*LocalStorage)(nil)

// NewLocalStorage creates the upload directory if needed.
// baseURL may be empty, in which case returned URLs are host-relative.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create upload dir: %w", err)
	}
	return &LocalStorage{
		dir:          dir,
		publicPrefix: DefaultPublicPrefix,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		now:          time.Now,
	}, nil
}

// Dir returns the directory uploads are written to
func (s *LocalStorage) Dir() string {
	return s.dir
}

// PublicPrefix returns the URL path prefix of stored files
func (s *LocalStorage) PublicPrefix() string {
	return s.publicPrefix
}

// PublicURLPrefix returns baseURL followed by the public prefix
func (s *LocalStorage) PublicURLPrefix() string {
	return s.baseURL + s.publicPrefix
}

// UploadAsset writes data as "<unix millis>-<sanitized name>" and returns its URL
func (s *LocalStorage) UploadAsset(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if len(data) == 0 {
		return "", &models.UploadError{Name: suggestedName, Err: errors.New("empty payload")}
	}
	if err := ctx.Err(); err != nil {
		return "", &models.UploadError{Name: suggestedName, Err: err}
	}

	name := utils.ObjectName(s.now(), suggestedName)
	dstPath := filepath.Join(s.dir, name)
	if err := os.WriteFile(dstPath, data, 0644); err != nil {
		return "", &models.UploadError{Name: suggestedName, Err: fmt.Errorf("cannot save file: %w", err)}
	}

	log.Printf("✅ Saved upload %s (%d bytes)", dstPath, len(data))
	return s.PublicURLPrefix() + name, nil
}
