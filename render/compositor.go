package render

import (
	"context"
	"image"
	"sync"

	"fotokeramika/filter"
)

// ImageLoader resolves an image reference. Implemented by assets.Loader.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Compositor keeps each loaded original next to its filtered renders.
// Filters are always applied to the preserved original, so changing a chain
// never compounds on pixels that were already adjusted.
type Compositor struct {
	loader ImageLoader

	mu        sync.Mutex
	originals map[string]image.Image
	derived   map[derivedKey]image.Image
}

type derivedKey struct {
	ref         string
	fingerprint string
}

// NewCompositor creates a compositor backed by loader
func NewCompositor(loader ImageLoader) *Compositor {
	return &Compositor{
		loader:    loader,
		originals: make(map[string]image.Image),
		derived:   make(map[derivedKey]image.Image),
	}
}

// Original returns the unfiltered image for ref, loading it on first use
func (c *Compositor) Original(ctx context.Context, ref string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.originals[ref]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := c.loader.Load(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.originals[ref] = img
	c.mu.Unlock()
	return img, nil
}

// Filtered returns ref with chain applied
func (c *Compositor) Filtered(ctx context.Context, ref string, chain filter.Chain) (image.Image, error) {
	original, err := c.Original(ctx, ref)
	if err != nil {
		return nil, err
	}
	if chain.IsIdentity() {
		return original, nil
	}

	key := derivedKey{ref: ref, fingerprint: chain.Fingerprint()}

	c.mu.Lock()
	img, ok := c.derived[key]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	img = filter.Apply(original, chain)

	c.mu.Lock()
	// Only the latest chain per asset is worth keeping
	for k := range c.derived {
		if k.ref == ref {
			delete(c.derived, k)
		}
	}
	c.derived[key] = img
	c.mu.Unlock()
	return img, nil
}

// Forget drops the original and every derived render of ref
func (c *Compositor) Forget(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.originals, ref)
	for k := range c.derived {
		if k.ref == ref {
			delete(c.derived, k)
		}
	}
}

// Retain drops every cached asset whose reference is not in keep
func (c *Compositor) Retain(keep ...string) {
	wanted := make(map[string]bool, len(keep))
	for _, ref := range keep {
		wanted[ref] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for ref := range c.originals {
		if !wanted[ref] {
			delete(c.originals, ref)
		}
	}
	for k := range c.derived {
		if !wanted[k.ref] {
			delete(c.derived, k)
		}
	}
}
