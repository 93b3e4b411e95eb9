// Package assets fetches and decodes the images referenced by a scene.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"fotokeramika/metrics"
	"fotokeramika/models"
)

const (
	// DefaultTimeout bounds one fetch plus decode
	DefaultTimeout = 15 * time.Second

	maxAssetBytes = 32 << 20
)

// Loader resolves an image reference into a decoded image.
// Supported references: http(s) URLs, data: URIs and URLs under the local
// upload prefix. Server paths are only reachable through the upload prefix.
type Loader struct {
	client      *http.Client
	timeout     time.Duration
	localPrefix string
	localDir    string
}

// LoaderConfig configures a Loader
type LoaderConfig struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// LocalPrefix maps public URLs of the local storage (e.g. "/uploads/") to LocalDir
	LocalPrefix string
	LocalDir    string
}

// NewLoader creates a new loader
func NewLoader(cfg LoaderConfig) *Loader {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		client:      client,
		timeout:     timeout,
		localPrefix: cfg.LocalPrefix,
		localDir:    cfg.LocalDir,
	}
}

// Load fetches and decodes ref. Every failure, including the timeout expiring,
// is returned as *models.AssetLoadError.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	img, err := l.load(ctx, ref)
	if err != nil {
		metrics.RecordAssetLoadFailure(scheme(ref))
		log.Printf("❌ Asset load failed for %s: %v", shortRef(ref), err)
		return nil, &models.AssetLoadError{Ref: shortRef(ref), Err: err}
	}
	return img, nil
}

func (l *Loader) load(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty image reference")
	}

	data, err := l.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Decode decodes image bytes, honouring EXIF orientation
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case l.localPrefix != "" && strings.HasPrefix(ref, l.localPrefix):
		name := filepath.Base(strings.TrimPrefix(ref, l.localPrefix))
		return readLimited(ctx, filepath.Join(l.localDir, name))
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetchHTTP(ctx, ref)
	default:
		return nil, fmt.Errorf("unsupported image reference")
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxAssetBytes)
	}
	return data, nil
}

func readLimited(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.Size() > maxAssetBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxAssetBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// decodeDataURI accepts "data:<mime>;base64,<payload>"
func decodeDataURI(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(ref, ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, errors.New("data uri must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, nil
}

func scheme(ref string) string {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return "data"
	case strings.HasPrefix(ref, "https://"):
		return "https"
	case strings.HasPrefix(ref, "http://"):
		return "http"
	case ref == "":
		return "empty"
	}
	return "local"
}

// shortRef keeps data URIs out of logs and error messages
func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		if header, _, ok := strings.Cut(ref, ","); ok {
			return header + ",..."
		}
		return "data:..."
	}
	return ref
}
