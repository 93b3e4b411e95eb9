package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotokeramika/models"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Sizes, 50)
	assert.Len(t, c.Services, 3)
	assert.Len(t, c.Materials, 4)
	assert.Len(t, c.Backgrounds, 8)
	assert.Len(t, c.Fonts, 8)
	assert.Len(t, c.PlateColors, 6)

	assert.Equal(t, 600, c.Editors.Background.Width)
	assert.Equal(t, 800, c.Editors.Background.Height)
	assert.Equal(t, 2, c.Editors.Background.ExportMultiplier)
	assert.Equal(t, 400, c.Editors.Plate.Width)
	assert.Equal(t, 300, c.Editors.Plate.Height)
	assert.Equal(t, 3, c.Editors.Plate.ExportMultiplier)
	assert.Equal(t, float64(24), c.Editors.Plate.BaseFontSize)
	assert.Equal(t, "#2c3e50", c.Editors.Plate.BackgroundColor)
}

func TestCatalog_Lookups(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Фотокерамика", c.ServiceName(models.ServicePhotoCeramics))
	assert.Equal(t, "mystery", c.ServiceName("mystery"))
	assert.Equal(t, "Керамогранит (Италия)", c.MaterialName("ceramic-italy"))
	assert.Equal(t, "wood", c.MaterialName("wood"))

	assert.True(t, c.HasSize("13×18"))
	assert.True(t, c.HasSize("13x18"))
	assert.False(t, c.HasSize("13×17"))

	bg, ok := c.Background(c.Editors.Background.DefaultBackground)
	require.True(t, ok)
	assert.Equal(t, "Природа", bg.Category)

	assert.Equal(t, []string{"Природа", "Храмы", "Небо", "Цветы", "Море", "Символика", "Абстракция"}, c.BackgroundCategories())
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	_, err := Parse([]byte("services: ["))
	assert.Error(t, err)

	_, err = Parse([]byte("services:\n  - id: tattoo\n"))
	assert.ErrorContains(t, err, "unknown service type")

	doc := `
services:
  - id: photoceramics
sizes: ["13by18"]
`
	_, err = Parse([]byte(doc))
	assert.ErrorContains(t, err, "malformed")

	doc = `
services:
  - id: photoceramics
editors:
  background: {width: 0, height: 800, exportMultiplier: 2}
  plate: {width: 400, height: 300, exportMultiplier: 3}
`
	_, err = Parse([]byte(doc))
	assert.ErrorContains(t, err, "positive dimensions")
}
