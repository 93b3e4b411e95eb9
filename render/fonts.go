package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"fotokeramika/utils"
)

// FontBook holds the embedded font sources used for plate text.
// Families offered by the editor are mapped onto the Go font faces.
type FontBook struct {
	sources map[string]*text.FontSource

	mu    sync.Mutex
	faces map[faceKey]text.Face
}

type faceKey struct {
	source string
	size   float64
}

// NewFontBook parses the embedded Go fonts
func NewFontBook() (*FontBook, error) {
	embedded := map[string][]byte{
		utils.FaceRegular:  goregular.TTF,
		utils.FaceBold:     gobold.TTF,
		utils.FaceMono:     gomono.TTF,
		utils.FaceMonoBold: gomonobold.TTF,
		utils.FaceMedium:   gomedium.TTF,
	}

	book := &FontBook{
		sources: make(map[string]*text.FontSource, len(embedded)),
		faces:   make(map[faceKey]text.Face),
	}
	for name, data := range embedded {
		source, err := text.NewFontSource(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
		}
		book.sources[name] = source
	}
	return book, nil
}

// Face returns the face for a font family at size pixels
func (b *FontBook) Face(family string, bold bool, size float64) text.Face {
	name := utils.MapFontFamilyToFace(family, bold)
	source, ok := b.sources[name]
	if !ok {
		name = utils.FaceRegular
		source = b.sources[name]
	}

	key := faceKey{source: name, size: size}

	b.mu.Lock()
	defer b.mu.Unlock()
	if face, ok := b.faces[key]; ok {
		return face
	}
	face := source.Face(size)
	b.faces[key] = face
	return face
}
