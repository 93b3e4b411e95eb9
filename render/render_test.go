package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotokeramika/filter"
	"fotokeramika/models"
	"fotokeramika/scene"
)

type stubLoader struct {
	images map[string]image.Image
	calls  atomic.Int32
}

func (s *stubLoader) Load(_ context.Context, ref string) (image.Image, error) {
	s.calls.Add(1)
	img, ok := s.images[ref]
	if !ok {
		return nil, &models.AssetLoadError{Ref: ref, Err: errors.New("not found")}
	}
	return img, nil
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func newTestExporter(t *testing.T, loader ImageLoader) *Exporter {
	t.Helper()
	fonts, err := NewFontBook()
	require.NoError(t, err)
	return NewExporter(NewCompositor(loader), fonts)
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func plateGraph() scene.Graph {
	return scene.New(400, 300).
		SetBackgroundColor("#2c3e50").
		SetTextField(scene.FieldName, "Иванов Иван").
		SetTextField(scene.FieldBirthDate, "01.01.1940").
		SetTextField(scene.FieldDeathDate, "02.02.2020").
		SetTextField(scene.FieldEpitaph, "Помним, любим, скорбим о тебе всегда и навсегда")
}

func TestExport_MultipliesDimensions(t *testing.T) {
	exporter := newTestExporter(t, &stubLoader{})

	data, err := exporter.Export(context.Background(), plateGraph(), 2)
	require.NoError(t, err)

	img := decodePNG(t, data)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())

	w, h := OutputSize(plateGraph(), 3)
	assert.Equal(t, 1200, w)
	assert.Equal(t, 900, h)
}

func TestExport_Deterministic(t *testing.T) {
	loader := &stubLoader{images: map[string]image.Image{
		"bg.jpg":   solid(60, 80, color.NRGBA{R: 200, G: 180, B: 160, A: 255}),
		"face.png": solid(40, 40, color.NRGBA{R: 10, G: 120, B: 240, A: 255}),
	}}
	graph := scene.New(60, 80).
		SetBackground("bg.jpg").
		SetPortrait("face.png", 40, 40).
		UpdateFilter(filter.Contrast, 0.3).
		SetGrayscale(true)

	exporter := newTestExporter(t, loader)
	first, err := exporter.Export(context.Background(), graph, 2)
	require.NoError(t, err)
	second, err := exporter.Export(context.Background(), graph, 2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), loader.calls.Load(), "originals are loaded once per asset")
}

func TestExport_FillsBackgroundColour(t *testing.T) {
	exporter := newTestExporter(t, &stubLoader{})

	data, err := exporter.Preview(context.Background(), scene.New(40, 30).SetBackgroundColor("#2c3e50"))
	require.NoError(t, err)

	r, g, b, a := decodePNG(t, data).At(20, 15).RGBA()
	assert.InDelta(t, 0x2c, r>>8, 1)
	assert.InDelta(t, 0x3e, g>>8, 1)
	assert.InDelta(t, 0x50, b>>8, 1)
	assert.Equal(t, uint32(0xff), a>>8)
}

func TestExport_MissingAssetFails(t *testing.T) {
	exporter := newTestExporter(t, &stubLoader{})
	graph := scene.New(60, 80).SetPortrait("https://example.invalid/missing.png", 10, 10)

	_, err := exporter.Export(context.Background(), graph, 2)
	var loadErr *models.AssetLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "https://example.invalid/missing.png", loadErr.Ref)
}

func TestExport_RejectsBadInput(t *testing.T) {
	exporter := newTestExporter(t, &stubLoader{})

	_, err := exporter.Export(context.Background(), plateGraph(), 0)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)
	_, err = exporter.Export(context.Background(), plateGraph(), MaxMultiplier+1)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	_, err = exporter.Export(context.Background(), scene.New(0, 10), 1)
	assert.Error(t, err)
}

func TestCompositor_FiltersFromPreservedOriginal(t *testing.T) {
	original := solid(8, 8, color.NRGBA{R: 100, G: 150, B: 200, A: 255})
	before := append([]uint8(nil), original.Pix...)
	loader := &stubLoader{images: map[string]image.Image{"p.png": original}}
	compositor := NewCompositor(loader)
	ctx := context.Background()

	bright := filter.Chain{}.WithMagnitude(filter.Brightness, 0.5)
	first, err := compositor.Filtered(ctx, "p.png", bright)
	require.NoError(t, err)

	_, err = compositor.Filtered(ctx, "p.png", filter.Chain{}.WithToggle(filter.Grayscale, true))
	require.NoError(t, err)

	again, err := compositor.Filtered(ctx, "p.png", bright)
	require.NoError(t, err)

	assert.Equal(t, first.(*image.NRGBA).Pix, again.(*image.NRGBA).Pix)
	assert.Equal(t, before, original.Pix)
	assert.Equal(t, int32(1), loader.calls.Load())

	identity, err := compositor.Filtered(ctx, "p.png", nil)
	require.NoError(t, err)
	assert.Same(t, original, identity.(*image.NRGBA))

	compositor.Forget("p.png")
	_, err = compositor.Original(ctx, "p.png")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())

	compositor.Retain()
	_, _ = compositor.Original(ctx, "p.png")
	assert.Equal(t, int32(3), loader.calls.Load())
}

func TestFontBook_FaceFallsBack(t *testing.T) {
	fonts, err := NewFontBook()
	require.NoError(t, err)

	face := fonts.Face("Comic Sans MS", false, 24)
	require.NotNil(t, face)
	assert.Equal(t, 24.0, face.Size())
	assert.Equal(t, face, fonts.Face("Arial", false, 24), "families mapped to one face share it")
}
