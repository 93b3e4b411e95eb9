// Package textlayout stacks the memorial plate text fields vertically.
package textlayout

import "strings"

// Slot identifies one text block of a plate
type Slot string

const (
	SlotName    Slot = "name"
	SlotDates   Slot = "dates"
	SlotEpitaph Slot = "epitaph"
)

// Reference geometry of the plate editor: 40px top margin on a 300px high canvas
const (
	referenceHeight = 300.0
	topMargin       = 40.0

	nameSpacing  = 20.0
	datesSpacing = 15.0

	// Epitaph wraps inside the canvas minus a 20px gutter on each side
	epitaphGutter = 40.0

	nameSizeOffset    = 4.0
	datesSizeOffset   = -2.0
	epitaphSizeOffset = -4.0

	minFontSize = 1.0
	// Canvases narrower than the gutter still wrap the epitaph at this width
	minWrapWidth = 10.0
)

// DateSeparator joins birth and death dates in the dates block
const DateSeparator = " - "

// Fields holds the raw text entered for a plate
type Fields struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	DeathDate string `json:"deathDate"`
	Epitaph   string `json:"epitaph"`
}

// Dates synthesises the dates block. Either date alone still produces the
// separator, e.g. "01.01.2000 - ".
func (f Fields) Dates() string {
	if isBlank(f.BirthDate) && isBlank(f.DeathDate) {
		return ""
	}
	return f.BirthDate + DateSeparator + f.DeathDate
}

// Layer is one positioned block of text.
// CenterX is the horizontal anchor, Y the top edge of the block.
// WrapWidth is zero for single-line blocks.
type Layer struct {
	Slot       Slot    `json:"slot"`
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Bold       bool    `json:"bold"`
	Color      string  `json:"color"`
	CenterX    float64 `json:"centerX"`
	Y          float64 `json:"y"`
	WrapWidth  float64 `json:"wrapWidth,omitempty"`
}

// Layout positions the non-empty fields top to bottom in the order name, dates, epitaph.
// Empty fields are skipped without reserving space. Font family and colour are
// left for the caller to fill in.
func Layout(fields Fields, canvasWidth, canvasHeight int, baseFontSize float64) []Layer {
	width := float64(canvasWidth)
	centerX := width / 2
	cursor := TopMargin(canvasHeight)

	layers := make([]Layer, 0, 3)

	if !isBlank(fields.Name) {
		size := fontSize(baseFontSize, nameSizeOffset)
		layers = append(layers, Layer{
			Slot:     SlotName,
			Content:  fields.Name,
			FontSize: size,
			Bold:     true,
			CenterX:  centerX,
			Y:        cursor,
		})
		cursor += size + nameSpacing
	}

	if dates := fields.Dates(); dates != "" {
		size := fontSize(baseFontSize, datesSizeOffset)
		layers = append(layers, Layer{
			Slot:     SlotDates,
			Content:  dates,
			FontSize: size,
			CenterX:  centerX,
			Y:        cursor,
		})
		cursor += size + datesSpacing
	}

	if !isBlank(fields.Epitaph) {
		layers = append(layers, Layer{
			Slot:      SlotEpitaph,
			Content:   fields.Epitaph,
			FontSize:  fontSize(baseFontSize, epitaphSizeOffset),
			CenterX:   centerX,
			Y:         cursor,
			WrapWidth: max(width-epitaphGutter, minWrapWidth),
		})
	}

	return layers
}

// TopMargin returns the first block's offset for a canvas of the given height
func TopMargin(canvasHeight int) float64 {
	if canvasHeight <= 0 {
		return topMargin
	}
	return topMargin * float64(canvasHeight) / referenceHeight
}

func fontSize(base, offset float64) float64 {
	return max(base+offset, minFontSize)
}

// isBlank treats whitespace-only fields as empty, so a stray space does not
// reserve a line on the plate
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
