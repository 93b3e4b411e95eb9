package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFileName reduces a user supplied file name to a storage-safe object name.
// Example: "Фото бабушки (1).JPG" -> "1.jpg", "my photo.png" -> "my_photo.png"
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	base = strings.ReplaceAll(base, " ", "_")
	base = unsafeNameChars.ReplaceAllString(base, "")
	base = strings.Trim(base, "._-")
	if base == "" || base == "." {
		base = "file"
	}
	ext = unsafeNameChars.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}
	return base + ext
}

// ObjectName builds the "<unix millis>-<sanitized name>" key used for uploaded assets
func ObjectName(now time.Time, suggestedName string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFileName(suggestedName))
}

// ContentTypeForName guesses an image content type from the file extension.
// Unknown extensions fall back to application/octet-stream.
func ContentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
