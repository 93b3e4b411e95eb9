package scene

import (
	"fotokeramika/filter"
	"fotokeramika/textlayout"
)

// OpKind is the primitive a DrawOp paints
type OpKind string

const (
	OpFill  OpKind = "fill"
	OpImage OpKind = "image"
	OpText  OpKind = "text"
)

// LayerKind names the layer a DrawOp came from
type LayerKind string

const (
	LayerBackground LayerKind = "background"
	LayerPortrait   LayerKind = "portrait"
	LayerText       LayerKind = "text"
)

// DrawOp is one flattened paint instruction in canvas pixels.
// Image ops carry the asset reference and the filters to apply to it.
type DrawOp struct {
	Kind     OpKind       `json:"kind"`
	Layer    LayerKind    `json:"layer"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width,omitempty"`
	Height   float64      `json:"height,omitempty"`
	Color    string       `json:"color,omitempty"`
	ImageRef string       `json:"imageRef,omitempty"`
	Filters  filter.Chain `json:"filters,omitempty"`
	Text     *TextLayer   `json:"text,omitempty"`
}

// Render flattens the graph into paint order: background fill, background image,
// portrait, then text blocks name, dates, epitaph.
func (g Graph) Render() []DrawOp {
	w, h := float64(g.Width), float64(g.Height)
	ops := make([]DrawOp, 0, 3+len(g.Text))

	if g.Background.Color != "" {
		ops = append(ops, DrawOp{
			Kind:   OpFill,
			Layer:  LayerBackground,
			Width:  w,
			Height: h,
			Color:  g.Background.Color,
		})
	}
	if g.Background.ImageRef != "" {
		ops = append(ops, DrawOp{
			Kind:     OpImage,
			Layer:    LayerBackground,
			Width:    w,
			Height:   h,
			ImageRef: g.Background.ImageRef,
		})
	}

	if p := g.Portrait; p != nil {
		ops = append(ops, DrawOp{
			Kind:     OpImage,
			Layer:    LayerPortrait,
			X:        p.X,
			Y:        p.Y,
			Width:    p.Width(),
			Height:   p.Height(),
			ImageRef: p.ImageRef,
			Filters:  p.Filters.Ordered(),
		})
	}

	for _, slot := range []textlayout.Slot{textlayout.SlotName, textlayout.SlotDates, textlayout.SlotEpitaph} {
		for i := range g.Text {
			if g.Text[i].Slot != slot {
				continue
			}
			layer := g.Text[i]
			ops = append(ops, DrawOp{
				Kind:  OpText,
				Layer: LayerText,
				X:     layer.CenterX,
				Y:     layer.Y,
				Width: layer.WrapWidth,
				Color: layer.Color,
				Text:  &layer,
			})
		}
	}

	return ops
}
