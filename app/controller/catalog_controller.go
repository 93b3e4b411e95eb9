package controller

import (
	"net/http"

	"fotokeramika/catalog"
	"fotokeramika/models"
	"fotokeramika/pricing"
)

// CatalogController serves the storefront catalog with its starting prices
type CatalogController struct {
	catalog *catalog.Catalog
	engine  *pricing.Engine
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(c *catalog.Catalog, engine *pricing.Engine) *CatalogController {
	return &CatalogController{catalog: c, engine: engine}
}

// SizePrice is the base price of one offered size
type SizePrice struct {
	Size      string `json:"size"`
	Price     int64  `json:"price"`
	Formatted string `json:"formatted"`
	Source    string `json:"source"`
}

// CatalogResponse is the body of GET /api/catalog
type CatalogResponse struct {
	*catalog.Catalog
	Currency             string      `json:"currency"`
	SizePrices           []SizePrice `json:"sizePrices"`
	BackgroundCategories []string    `json:"backgroundCategories"`
}

// GetCatalog handles GET /api/catalog
// Sizes are priced the way the wizard prices them, so the table and the quote never disagree.
func (c *CatalogController) GetCatalog(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, "GetCatalog", http.MethodGet) {
		return
	}

	prices := make([]SizePrice, 0, len(c.catalog.Sizes))
	for _, size := range c.catalog.Sizes {
		cfg := models.NewOrderConfiguration()
		cfg.Size = size
		quote := c.engine.Quote(cfg)
		prices = append(prices, SizePrice{
			Size:      size,
			Price:     quote.Total,
			Formatted: quote.FormattedTotal,
			Source:    quote.BaseSource,
		})
	}

	writeJSON(w, http.StatusOK, CatalogResponse{
		Catalog:              c.catalog,
		Currency:             c.engine.Currency(),
		SizePrices:           prices,
		BackgroundCategories: c.catalog.BackgroundCategories(),
	})
}
