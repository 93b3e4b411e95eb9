package service

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"fotokeramika/assets"
)

// ImageVariant selects the preview size produced by OptimizeImage
type ImageVariant string

const (
	VariantThumb  ImageVariant = "thumb"
	VariantMedium ImageVariant = "medium"
)

const (
	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

// OptimizeImage converts a customer photo into a JPEG preview.
// The source is decoded with EXIF orientation applied and shrunk to fit
// the variant's bounding box; smaller images keep their size.
func OptimizeImage(imageData []byte, variant ImageVariant) ([]byte, error) {
	img, err := assets.Decode(imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var maxDim, quality int
	switch variant {
	case VariantThumb:
		maxDim, quality = maxSizeThumb, qualityThumb
	case VariantMedium:
		maxDim, quality = maxSizeMedium, qualityMedium
	default:
		maxDim, quality = maxSizeMedium, qualityMedium
		log.Printf("⚠️  Unknown image variant '%s', defaulting to medium", variant)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		log.Printf("🔄 Resized photo: %dx%d -> %dx%d", bounds.Dx(), bounds.Dy(), img.Bounds().Dx(), img.Bounds().Dy())
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// previewName derives the object name of a preview from the original file name
func previewName(name string, variant ImageVariant) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "photo"
	}
	return fmt.Sprintf("%s_%s.jpg", base, variant)
}
