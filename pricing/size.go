package pricing

import (
	"strconv"
	"strings"
)

// SizeSeparator is the multiplication sign (U+00D7) used in size identifiers
const SizeSeparator = "×"

// ParseSize parses a "W×H" size identifier in centimetres.
// The ASCII letters x and X are accepted as separators too.
// ok is false for empty, malformed or non-positive sizes.
func ParseSize(size string) (width, height int64, ok bool) {
	normalized := strings.TrimSpace(size)
	if normalized == "" {
		return 0, 0, false
	}
	normalized = strings.NewReplacer("x", SizeSeparator, "X", SizeSeparator).Replace(normalized)

	parts := strings.Split(normalized, SizeSeparator)
	if len(parts) != 2 {
		return 0, 0, false
	}

	width, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	height, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// FormatSize renders dimensions back into the canonical "W×H" identifier
func FormatSize(width, height int64) string {
	return strconv.FormatInt(width, 10) + SizeSeparator + strconv.FormatInt(height, 10)
}

// NormalizeSize returns the canonical form of a size identifier, or the trimmed input
// when it cannot be parsed
func NormalizeSize(size string) string {
	if w, h, ok := ParseSize(size); ok {
		return FormatSize(w, h)
	}
	return strings.TrimSpace(size)
}
