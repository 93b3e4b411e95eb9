package utils

import (
	"strings"
)

// Embedded face keys understood by the renderer
const (
	FaceRegular  = "goregular"
	FaceBold     = "gobold"
	FaceMono     = "gomono"
	FaceMonoBold = "gomonobold"
	FaceMedium   = "gomedium"
)

// MapFontFamilyToFace maps a font family offered by the plate editor to one of the embedded faces.
// Input is normalized to lowercase before mapping.
// Unknown families fall back to the regular (or bold) sans face.
func MapFontFamilyToFace(family string, bold bool) string {
	familyLower := strings.ToLower(strings.TrimSpace(family))

	fontMap := map[string][2]string{
		"arial":           {FaceRegular, FaceBold},
		"helvetica":       {FaceRegular, FaceBold},
		"verdana":         {FaceRegular, FaceBold},
		"comic sans ms":   {FaceRegular, FaceBold},
		"impact":          {FaceBold, FaceBold},
		"times new roman": {FaceMedium, FaceBold},
		"georgia":         {FaceMedium, FaceBold},
		"courier new":     {FaceMono, FaceMonoBold},
	}

	faces, exists := fontMap[familyLower]
	if !exists {
		faces = [2]string{FaceRegular, FaceBold}
	}
	if bold {
		return faces[1]
	}
	return faces[0]
}

// NormalizeHexColor lowercases a CSS hex colour and expands the #rgb short form.
// Returns def when the input is not a valid hex colour.
func NormalizeHexColor(hex string, def string) string {
	hex = strings.ToLower(strings.TrimSpace(hex))
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	digits := hex[1:]
	for _, r := range digits {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return def
		}
	}
	switch len(digits) {
	case 3:
		return "#" + string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	case 6:
		return hex
	default:
		return def
	}
}
