// Package render rasterizes scene graphs into PNG images.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"fotokeramika/metrics"
	"fotokeramika/scene"
)

// ErrInvalidMultiplier is returned for a supersampling multiplier below 1
var ErrInvalidMultiplier = errors.New("multiplier must be a positive integer")

// MaxMultiplier bounds the supersampling factor so a single export stays within memory
const MaxMultiplier = 8

// Exporter renders scene graphs of one editor session
type Exporter struct {
	compositor *Compositor
	fonts      *FontBook
}

// NewExporter creates an exporter drawing images from compositor and text from fonts
func NewExporter(compositor *Compositor, fonts *FontBook) *Exporter {
	return &Exporter{compositor: compositor, fonts: fonts}
}

// Preview renders the graph at its logical size
func (e *Exporter) Preview(ctx context.Context, graph scene.Graph) ([]byte, error) {
	return e.Export(ctx, graph, 1)
}

// Export renders the graph at multiplier times its logical resolution and encodes it as PNG.
// The output is deterministic for a given graph and multiplier. A referenced image that
// cannot be loaded fails the export with *models.AssetLoadError.
func (e *Exporter) Export(ctx context.Context, graph scene.Graph, multiplier int) ([]byte, error) {
	start := time.Now()
	data, err := e.export(ctx, graph, multiplier)
	metrics.RecordExport(time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	log.Printf("🖼️  Scene exported: %dx%d at x%d, %d bytes", graph.Width, graph.Height, multiplier, len(data))
	return data, nil
}

func (e *Exporter) export(ctx context.Context, graph scene.Graph, multiplier int) ([]byte, error) {
	if multiplier < 1 || multiplier > MaxMultiplier {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrInvalidMultiplier, multiplier, MaxMultiplier)
	}
	if graph.Width <= 0 || graph.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", graph.Width, graph.Height)
	}

	ops := graph.Render()

	// Resolve every image first so a missing asset fails before any drawing
	images := make(map[int]image.Image)
	for i, op := range ops {
		if op.Kind != scene.OpImage {
			continue
		}
		img, err := e.compositor.Filtered(ctx, op.ImageRef, op.Filters)
		if err != nil {
			return nil, err
		}
		images[i] = img
	}

	m := float64(multiplier)
	dc := gg.NewContext(graph.Width*multiplier, graph.Height*multiplier)
	defer dc.Close()

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch op.Kind {
		case scene.OpFill:
			dc.SetHexColor(op.Color)
			dc.DrawRectangle(op.X*m, op.Y*m, op.Width*m, op.Height*m)
			if err := dc.Fill(); err != nil {
				return nil, fmt.Errorf("failed to fill %s layer: %w", op.Layer, err)
			}
		case scene.OpImage:
			dc.DrawImageEx(gg.ImageBufFromImage(images[i]), gg.DrawImageOptions{
				X:             op.X * m,
				Y:             op.Y * m,
				DstWidth:      op.Width * m,
				DstHeight:     op.Height * m,
				Interpolation: gg.InterpBilinear,
				Opacity:       1.0,
				BlendMode:     gg.BlendNormal,
			})
		case scene.OpText:
			e.drawText(dc, op.Text, m)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// drawText paints one text block centred on CenterX with its top edge at Y.
// Wrapped blocks break on words inside WrapWidth.
func (e *Exporter) drawText(dc *gg.Context, layer *scene.TextLayer, m float64) {
	if layer == nil || layer.Content == "" {
		return
	}

	face := e.fonts.Face(layer.FontFamily, layer.Bold, layer.FontSize*m)
	dc.SetFont(face)
	dc.SetHexColor(layer.Color)

	fm := face.Metrics()
	lines := []string{layer.Content}
	if layer.WrapWidth > 0 {
		lines = lines[:0]
		for _, line := range text.WrapText(layer.Content, face, layer.WrapWidth*m, text.WrapWord) {
			lines = append(lines, strings.TrimSpace(line.Text))
		}
	}

	baseline := layer.Y*m + fm.Ascent
	for _, line := range lines {
		if line != "" {
			dc.DrawStringAnchored(line, layer.CenterX*m, baseline, 0.5, 0)
		}
		baseline += fm.LineHeight()
	}
}

// OutputSize returns the pixel size of an export
func OutputSize(graph scene.Graph, multiplier int) (int, int) {
	return graph.Width * multiplier, graph.Height * multiplier
}
