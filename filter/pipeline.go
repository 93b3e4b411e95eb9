package filter

import (
	"image"

	"github.com/disintegration/imaging"
)

// percentScale converts a [-1, 1] magnitude into imaging's percentage range
const percentScale = 100

// Apply renders chain over src and returns a new image.
// src is never modified, so callers can keep it as the unfiltered original and
// re-apply a changed chain without compounding earlier adjustments.
func Apply(src image.Image, chain Chain) *image.NRGBA {
	out := imaging.Clone(src)
	for _, d := range chain.Ordered() {
		if d.IsNeutral() {
			continue
		}
		switch d.Kind {
		case Grayscale:
			out = imaging.Grayscale(out)
		case Brightness:
			out = imaging.AdjustBrightness(out, d.Magnitude*percentScale)
		case Contrast:
			out = imaging.AdjustContrast(out, d.Magnitude*percentScale)
		case Saturation:
			out = imaging.AdjustSaturation(out, d.Magnitude*percentScale)
		}
	}
	return out
}
