// Package storage uploads photos and exported compositions to an object store.
package storage

import (
	"context"
)

// AssetStorage stores raw bytes under a name derived from suggestedName and
// returns the public URL of the stored object. Failures are *models.UploadError.
type AssetStorage interface {
	UploadAsset(ctx context.Context, data []byte, suggestedName string) (string, error)
	// PublicURLPrefix is the prefix every returned URL starts with
	PublicURLPrefix() string
}
