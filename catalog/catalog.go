package catalog

import (
	_ "embed"
	"fmt"
	"log"
	"sync"

	"gopkg.in/yaml.v3"

	"fotokeramika/models"
	"fotokeramika/pricing"
	"fotokeramika/utils"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Service is a product line offered by the wizard
type Service struct {
	ID          models.ServiceType `yaml:"id" json:"id"`
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description"`
	FixedPrice  int64              `yaml:"fixedPrice,omitempty" json:"fixedPrice,omitempty"`
}

// Material is a plate material
type Material struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// RetouchOption is the display label of a retouch tier
type RetouchOption struct {
	ID   models.RetouchTier `yaml:"id" json:"id"`
	Name string             `yaml:"name" json:"name"`
}

// Background is a stock background image for the portrait editor
type Background struct {
	ID          int    `yaml:"id" json:"id"`
	URL         string `yaml:"url" json:"url"`
	Category    string `yaml:"category" json:"category"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// EditorPreset holds the canvas defaults of one editor kind
type EditorPreset struct {
	Width             int     `yaml:"width" json:"width"`
	Height            int     `yaml:"height" json:"height"`
	ExportMultiplier  int     `yaml:"exportMultiplier" json:"exportMultiplier"`
	BackgroundColor   string  `yaml:"backgroundColor" json:"backgroundColor"`
	DefaultBackground int     `yaml:"defaultBackground,omitempty" json:"defaultBackground,omitempty"`
	TextColor         string  `yaml:"textColor,omitempty" json:"textColor,omitempty"`
	FontFamily        string  `yaml:"fontFamily,omitempty" json:"fontFamily,omitempty"`
	BaseFontSize      float64 `yaml:"baseFontSize,omitempty" json:"baseFontSize,omitempty"`
}

// EditorPresets groups the presets of both editors
type EditorPresets struct {
	Background EditorPreset `yaml:"background" json:"background"`
	Plate      EditorPreset `yaml:"plate" json:"plate"`
}

// Catalog is the read-only storefront reference data
type Catalog struct {
	Services    []Service       `yaml:"services" json:"services"`
	Materials   []Material      `yaml:"materials" json:"materials"`
	Sizes       []string        `yaml:"sizes" json:"sizes"`
	Retouch     []RetouchOption `yaml:"retouch" json:"retouch"`
	Backgrounds []Background    `yaml:"backgrounds" json:"backgrounds"`
	PlateColors []string        `yaml:"plateColors" json:"plateColors"`
	Fonts       []string        `yaml:"fonts" json:"fonts"`
	Editors     EditorPresets   `yaml:"editors" json:"editors"`
}

var (
	catalogInstance *Catalog
	catalogOnce     sync.Once
	catalogErr      error
)

// Load returns the catalog parsed from the embedded document
func Load() (*Catalog, error) {
	catalogOnce.Do(func() {
		catalogInstance, catalogErr = Parse(defaultCatalog)
		if catalogErr == nil {
			log.Printf("✅ Catalog: loaded %d services, %d materials, %d sizes, %d backgrounds",
				len(catalogInstance.Services), len(catalogInstance.Materials),
				len(catalogInstance.Sizes), len(catalogInstance.Backgrounds))
		}
	})
	return catalogInstance, catalogErr
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("no services defined")
	}
	for _, s := range c.Services {
		if !s.ID.Valid() {
			return fmt.Errorf("unknown service type %q", s.ID)
		}
	}
	for i, size := range c.Sizes {
		if _, _, ok := pricing.ParseSize(size); !ok {
			return fmt.Errorf("size %q is malformed", size)
		}
		c.Sizes[i] = pricing.NormalizeSize(size)
	}
	for i, color := range c.PlateColors {
		normalized := utils.NormalizeHexColor(color, "")
		if normalized == "" {
			return fmt.Errorf("plate colour %q is not a hex colour", color)
		}
		c.PlateColors[i] = normalized
	}
	for name, preset := range map[string]EditorPreset{"background": c.Editors.Background, "plate": c.Editors.Plate} {
		if preset.Width <= 0 || preset.Height <= 0 {
			return fmt.Errorf("%s editor canvas must have positive dimensions", name)
		}
		if preset.ExportMultiplier < 1 {
			return fmt.Errorf("%s editor export multiplier must be at least 1", name)
		}
	}
	return nil
}

// ServiceName returns the display name of a service, or its id when unknown
func (c *Catalog) ServiceName(id models.ServiceType) string {
	for _, s := range c.Services {
		if s.ID == id {
			return s.Name
		}
	}
	return string(id)
}

// MaterialName returns the display name of a material, or its id when unknown
func (c *Catalog) MaterialName(id string) string {
	if m, ok := c.Material(id); ok {
		return m.Name
	}
	return id
}

// Material looks a material up by id
func (c *Catalog) Material(id string) (Material, bool) {
	for _, m := range c.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}

// HasSize reports whether size is offered by the wizard
func (c *Catalog) HasSize(size string) bool {
	normalized := pricing.NormalizeSize(size)
	for _, s := range c.Sizes {
		if s == normalized {
			return true
		}
	}
	return false
}

// Background looks a stock background up by id
func (c *Catalog) Background(id int) (Background, bool) {
	for _, b := range c.Backgrounds {
		if b.ID == id {
			return b, true
		}
	}
	return Background{}, false
}

// BackgroundCategories returns the distinct background categories in catalog order
func (c *Catalog) BackgroundCategories() []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, b := range c.Backgrounds {
		if !seen[b.Category] {
			seen[b.Category] = true
			out = append(out, b.Category)
		}
	}
	return out
}
