package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies one image adjustment
type Kind string

const (
	Grayscale  Kind = "grayscale"
	Brightness Kind = "brightness"
	Contrast   Kind = "contrast"
	Saturation Kind = "saturation"
)

// canonicalOrder is the order filters are applied in, whatever order they were set in
var canonicalOrder = []Kind{Grayscale, Brightness, Contrast, Saturation}

// ParseKind maps an API value to a Kind
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown filter kind %q", raw)
	}
	return kind, nil
}

// Valid reports whether k is a known filter kind
func (k Kind) Valid() bool {
	for _, known := range canonicalOrder {
		if k == known {
			return true
		}
	}
	return false
}

// IsToggle reports whether the kind is an on/off filter without magnitude
func (k Kind) IsToggle() bool {
	return k == Grayscale
}

func (k Kind) rank() int {
	for i, known := range canonicalOrder {
		if k == known {
			return i
		}
	}
	return len(canonicalOrder)
}

// Descriptor is one filter setting.
// Magnitude is used by brightness, contrast and saturation; Enabled by grayscale.
type Descriptor struct {
	Kind      Kind    `json:"kind"`
	Magnitude float64 `json:"magnitude,omitempty"`
	Enabled   bool    `json:"enabled,omitempty"`
}

// IsNeutral reports whether the descriptor leaves the image unchanged
func (d Descriptor) IsNeutral() bool {
	if d.Kind.IsToggle() {
		return !d.Enabled
	}
	return d.Magnitude == 0
}

// Clamp bounds a magnitude to [-1, 1]. NaN becomes 0.
func Clamp(magnitude float64) float64 {
	if math.IsNaN(magnitude) {
		return 0
	}
	return math.Max(-1, math.Min(1, magnitude))
}

// Chain is an ordered filter list with at most one descriptor per kind.
// Chains are values: every setter returns a new chain and leaves the receiver untouched.
type Chain []Descriptor

// Get returns the descriptor for kind, if present
func (c Chain) Get(kind Kind) (Descriptor, bool) {
	for _, d := range c {
		if d.Kind == kind {
			return d, true
		}
	}
	return Descriptor{}, false
}

// WithMagnitude upserts an adjustment filter, clamping magnitude to [-1, 1].
// Toggle kinds are switched on for a non-zero magnitude.
func (c Chain) WithMagnitude(kind Kind, magnitude float64) Chain {
	if !kind.Valid() {
		return c.clone()
	}
	if kind.IsToggle() {
		return c.WithToggle(kind, Clamp(magnitude) != 0)
	}
	return c.upsert(Descriptor{Kind: kind, Magnitude: Clamp(magnitude)})
}

// WithToggle upserts an on/off filter
func (c Chain) WithToggle(kind Kind, enabled bool) Chain {
	if !kind.IsToggle() {
		return c.clone()
	}
	return c.upsert(Descriptor{Kind: kind, Enabled: enabled})
}

func (c Chain) upsert(d Descriptor) Chain {
	out := make(Chain, 0, len(c)+1)
	replaced := false
	for _, existing := range c {
		if existing.Kind == d.Kind {
			out = append(out, d)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, d)
	}
	return out.Ordered()
}

func (c Chain) clone() Chain {
	if c == nil {
		return nil
	}
	return append(Chain{}, c...)
}

// Ordered returns a copy of the chain sorted into application order
func (c Chain) Ordered() Chain {
	out := make(Chain, 0, len(c))
	for _, kind := range canonicalOrder {
		if d, ok := c.Get(kind); ok {
			out = append(out, d)
		}
	}
	return out
}

// IsIdentity reports whether applying the chain changes nothing
func (c Chain) IsIdentity() bool {
	for _, d := range c {
		if !d.IsNeutral() {
			return false
		}
	}
	return true
}

// Fingerprint returns a stable key for the chain's effect.
// Chains that render identically share a fingerprint.
func (c Chain) Fingerprint() string {
	var b strings.Builder
	for _, d := range c.Ordered() {
		if d.IsNeutral() {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(string(d.Kind))
		if !d.Kind.IsToggle() {
			b.WriteByte('=')
			b.WriteString(strconv.FormatFloat(d.Magnitude, 'f', -1, 64))
		}
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}
