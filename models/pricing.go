package models

// Base price sources reported in a PriceQuote
const (
	BaseSourceSubscription = "subscription"
	BaseSourcePlate        = "plate"
	BaseSourceTable        = "table"
	BaseSourceFormula      = "formula"
	BaseSourceNone         = "none"
)

// PriceModifier is one additive surcharge applied on top of the base price
type PriceModifier struct {
	ID     string `json:"id"`     // retouch_basic, old_photo_improvement, qr_biography...
	Amount int64  `json:"amount"` // Whole currency units
}

// PriceQuote is the full pricing result for one OrderConfiguration
type PriceQuote struct {
	BaseSource     string          `json:"baseSource"`     // subscription, plate, table, formula or none
	BasePrice      int64           `json:"basePrice"`      // Price before modifiers
	Modifiers      []PriceModifier `json:"modifiers"`      // Additive surcharges (empty for subscriptions)
	Total          int64           `json:"total"`          // BasePrice + sum of modifiers
	FormattedTotal string          `json:"formattedTotal"` // Total formatted for display, e.g. "1 300 ₽"
}
