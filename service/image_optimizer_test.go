package service

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeImage(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		variant       ImageVariant
		wantW, wantH  int
	}{
		{"thumb shrinks landscape", 1200, 600, VariantThumb, 300, 150},
		{"medium shrinks portrait", 900, 1800, VariantMedium, 400, 800},
		{"small image keeps size", 120, 80, VariantThumb, 120, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := OptimizeImage(pngBytes(t, tt.width, tt.height), tt.variant)
			require.NoError(t, err)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestOptimizeImage_RejectsGarbage(t *testing.T) {
	_, err := OptimizeImage([]byte("not an image"), VariantThumb)
	assert.Error(t, err)
}

func TestPreviewName(t *testing.T) {
	assert.Equal(t, "grandpa_thumb.jpg", previewName("grandpa.png", VariantThumb))
	assert.Equal(t, "IMG_0001_medium.jpg", previewName("uploads/IMG_0001.HEIC", VariantMedium))
	assert.Equal(t, "photo_thumb.jpg", previewName("", VariantThumb))
}
