// Package scene models an editor composition as an immutable layer graph.
//
// Every transition is a method on the Graph value that returns a new Graph and
// leaves the receiver untouched, so callers may keep old graphs as snapshots.
package scene

import (
	"math"

	"fotokeramika/filter"
	"fotokeramika/textlayout"
	"fotokeramika/utils"
)

// TextLayer is a positioned text block produced by the text layout engine
type TextLayer = textlayout.Layer

// Portrait auto-fit bounds, relative to the canvas
const (
	portraitMaxWidthRatio  = 0.6
	portraitMaxHeightRatio = 0.8
)

// Font size limits accepted by SetFontSize
const (
	MinFontSize = 12
	MaxFontSize = 48
)

// BackgroundLayer is always painted first and stretched over the whole canvas.
// Color is painted under the image, so a plate without an image is a solid fill.
type BackgroundLayer struct {
	ImageRef string `json:"imageRef,omitempty"`
	Color    string `json:"color,omitempty"`
}

// PortraitLayer is the single user photo. X and Y are the top-left corner in canvas pixels.
type PortraitLayer struct {
	ImageRef     string       `json:"imageRef"`
	SourceWidth  int          `json:"sourceWidth"`
	SourceHeight int          `json:"sourceHeight"`
	X            float64      `json:"x"`
	Y            float64      `json:"y"`
	Scale        float64      `json:"scale"`
	Filters      filter.Chain `json:"filters"`
}

// Width returns the portrait's on-canvas width
func (p PortraitLayer) Width() float64 {
	return float64(p.SourceWidth) * p.Scale
}

// Height returns the portrait's on-canvas height
func (p PortraitLayer) Height() float64 {
	return float64(p.SourceHeight) * p.Scale
}

// TextStyle applies to every text block of the graph
type TextStyle struct {
	FontFamily   string  `json:"fontFamily"`
	BaseFontSize float64 `json:"baseFontSize"`
	Color        string  `json:"color"`
}

// DefaultTextStyle is the plate editor's starting style
var DefaultTextStyle = TextStyle{
	FontFamily:   "Arial",
	BaseFontSize: 24,
	Color:        "#ffffff",
}

// Graph is one composition: canvas size, a background, at most one portrait and
// the laid out text blocks. Fields are exported for serialisation; mutate through
// the transition methods only.
type Graph struct {
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Background BackgroundLayer   `json:"background"`
	Portrait   *PortraitLayer    `json:"portrait,omitempty"`
	Fields     textlayout.Fields `json:"fields"`
	Style      TextStyle         `json:"style"`
	Text       []TextLayer       `json:"text"`
}

// New returns an empty graph for a canvas of the given size
func New(width, height int) Graph {
	return Graph{
		Width:  width,
		Height: height,
		Style:  DefaultTextStyle,
		Text:   []TextLayer{},
	}
}

func (g Graph) clone() Graph {
	out := g
	if g.Portrait != nil {
		p := *g.Portrait
		p.Filters = append(filter.Chain(nil), g.Portrait.Filters...)
		out.Portrait = &p
	}
	out.Text = append([]TextLayer{}, g.Text...)
	return out
}

// HasPortrait reports whether a portrait layer is present
func (g Graph) HasPortrait() bool {
	return g.Portrait != nil
}

// SetBackground replaces the background image
func (g Graph) SetBackground(imageRef string) Graph {
	out := g.clone()
	out.Background.ImageRef = imageRef
	return out
}

// SetBackgroundColor replaces the background fill. Invalid colours are ignored.
func (g Graph) SetBackgroundColor(hex string) Graph {
	out := g.clone()
	out.Background.Color = utils.NormalizeHexColor(hex, g.Background.Color)
	return out
}

// SetPortrait replaces any existing portrait with a new one, empties its filter
// chain and fits it inside 60% of the canvas width and 80% of its height,
// centred. Images already inside those bounds keep their natural size.
// Non-positive source dimensions leave the graph unchanged.
func (g Graph) SetPortrait(imageRef string, sourceWidth, sourceHeight int) Graph {
	out := g.clone()
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return out
	}

	maxWidth := float64(g.Width) * portraitMaxWidthRatio
	maxHeight := float64(g.Height) * portraitMaxHeightRatio
	scale := math.Min(1, math.Min(maxWidth/float64(sourceWidth), maxHeight/float64(sourceHeight)))

	p := &PortraitLayer{
		ImageRef:     imageRef,
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		Scale:        scale,
		Filters:      filter.Chain{},
	}
	p.X = float64(g.Width)/2 - p.Width()/2
	p.Y = float64(g.Height)/2 - p.Height()/2
	out.Portrait = p
	return out
}

// RemovePortrait drops the portrait layer
func (g Graph) RemovePortrait() Graph {
	out := g.clone()
	out.Portrait = nil
	return out
}

// MovePortrait places the portrait's top-left corner at (x, y)
func (g Graph) MovePortrait(x, y float64) Graph {
	out := g.clone()
	if out.Portrait == nil || math.IsNaN(x) || math.IsNaN(y) {
		return out
	}
	out.Portrait.X = x
	out.Portrait.Y = y
	return out
}

// ScalePortrait sets the portrait scale, keeping its centre in place
func (g Graph) ScalePortrait(scale float64) Graph {
	out := g.clone()
	if out.Portrait == nil || !(scale > 0) || math.IsInf(scale, 0) {
		return out
	}
	p := out.Portrait
	cx := p.X + p.Width()/2
	cy := p.Y + p.Height()/2
	p.Scale = scale
	p.X = cx - p.Width()/2
	p.Y = cy - p.Height()/2
	return out
}

// UpdateFilter upserts an adjustment on the portrait. Without a portrait it is a no-op.
func (g Graph) UpdateFilter(kind filter.Kind, magnitude float64) Graph {
	out := g.clone()
	if out.Portrait == nil {
		return out
	}
	out.Portrait.Filters = out.Portrait.Filters.WithMagnitude(kind, magnitude)
	return out
}

// SetGrayscale toggles the portrait's grayscale filter
func (g Graph) SetGrayscale(enabled bool) Graph {
	out := g.clone()
	if out.Portrait == nil {
		return out
	}
	out.Portrait.Filters = out.Portrait.Filters.WithToggle(filter.Grayscale, enabled)
	return out
}

// ResetFilters empties the portrait's filter chain
func (g Graph) ResetFilters() Graph {
	out := g.clone()
	if out.Portrait == nil {
		return out
	}
	out.Portrait.Filters = filter.Chain{}
	return out
}

// Field names accepted by SetTextField
const (
	FieldName      = "name"
	FieldBirthDate = "birthDate"
	FieldDeathDate = "deathDate"
	FieldEpitaph   = "epitaph"
)

// SetTextField replaces one text field and re-runs the layout.
// Unknown fields leave the graph unchanged.
func (g Graph) SetTextField(field, content string) Graph {
	out := g.clone()
	switch field {
	case FieldName:
		out.Fields.Name = content
	case FieldBirthDate:
		out.Fields.BirthDate = content
	case FieldDeathDate:
		out.Fields.DeathDate = content
	case FieldEpitaph:
		out.Fields.Epitaph = content
	default:
		return out
	}
	return out.relayout()
}

// SetFont changes the font family of every text block
func (g Graph) SetFont(family string) Graph {
	out := g.clone()
	if family == "" {
		return out
	}
	out.Style.FontFamily = family
	return out.relayout()
}

// SetFontSize changes the base font size, clamped to [MinFontSize, MaxFontSize]
func (g Graph) SetFontSize(size float64) Graph {
	out := g.clone()
	if math.IsNaN(size) {
		return out
	}
	out.Style.BaseFontSize = math.Max(MinFontSize, math.Min(MaxFontSize, size))
	return out.relayout()
}

// SetTextColor changes the fill colour of every text block. Invalid colours are ignored.
func (g Graph) SetTextColor(hex string) Graph {
	out := g.clone()
	out.Style.Color = utils.NormalizeHexColor(hex, g.Style.Color)
	return out.relayout()
}

func (g Graph) relayout() Graph {
	layers := textlayout.Layout(g.Fields, g.Width, g.Height, g.Style.BaseFontSize)
	for i := range layers {
		layers[i].FontFamily = g.Style.FontFamily
		layers[i].Color = g.Style.Color
	}
	g.Text = layers
	return g
}
