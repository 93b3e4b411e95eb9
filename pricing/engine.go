package pricing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"

	"fotokeramika/models"
	"fotokeramika/utils"
)

//go:embed pricebook.json
var defaultPricebook []byte

// PricingConfig represents the pricing configuration structure
type PricingConfig struct {
	Currency      string           `json:"currency"`
	PlatePrice    int64            `json:"platePrice"`
	Formula       FormulaConfig    `json:"formula"`
	Sizes         map[string]int64 `json:"sizes"`
	Retouch       map[string]int64 `json:"retouch"`
	Modifiers     ModifierConfig   `json:"modifiers"`
	Subscriptions map[string]int64 `json:"subscriptions"`
}

// FormulaConfig is the area based fallback used for sizes missing from the table
type FormulaConfig struct {
	AreaThreshold   int64   `json:"areaThreshold"`
	SmallMultiplier float64 `json:"smallMultiplier"`
	LargeMultiplier float64 `json:"largeMultiplier"`
}

type ModifierConfig struct {
	OldPhotoImprovement int64 `json:"oldPhotoImprovement"`
	QRBiography         int64 `json:"qrBiography"`
}

// Engine prices order configurations from a fixed pricebook
type Engine struct {
	config *PricingConfig
}

var (
	engineInstance *Engine
	engineOnce     sync.Once
	engineErr      error
)

// NewEngine returns the singleton engine built from the embedded pricebook
func NewEngine() (*Engine, error) {
	engineOnce.Do(func() {
		engineInstance, engineErr = LoadEngine(defaultPricebook)
		if engineErr == nil {
			log.Printf("✅ PricingEngine: loaded embedded pricebook (%d fixed sizes, %d subscriptions)",
				len(engineInstance.config.Sizes), len(engineInstance.config.Subscriptions))
		}
	})
	return engineInstance, engineErr
}

// GetEngine returns the singleton pricing engine instance.
// It panics if the embedded pricebook is broken, which is a build defect.
func GetEngine() *Engine {
	engine, err := NewEngine()
	if err != nil {
		panic(fmt.Sprintf("pricing: embedded pricebook is invalid: %v", err))
	}
	return engine
}

// LoadEngine parses a pricebook document and builds an engine from it
func LoadEngine(data []byte) (*Engine, error) {
	var config PricingConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse pricing config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	return &Engine{config: &config}, nil
}

func validateConfig(config *PricingConfig) error {
	if config.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if len(config.Sizes) == 0 {
		return fmt.Errorf("sizes are required")
	}
	if config.Formula.SmallMultiplier <= 0 || config.Formula.LargeMultiplier <= 0 {
		return fmt.Errorf("formula multipliers must be positive")
	}
	for size := range config.Sizes {
		if _, _, ok := ParseSize(size); !ok {
			return fmt.Errorf("size table key %q is not a valid size", size)
		}
	}
	return nil
}

// Currency returns the ISO currency code of the pricebook
func (e *Engine) Currency() string {
	return e.config.Currency
}

// SizeTable returns a copy of the fixed size prices
func (e *Engine) SizeTable() map[string]int64 {
	out := make(map[string]int64, len(e.config.Sizes))
	for k, v := range e.config.Sizes {
		out[k] = v
	}
	return out
}

// IsSubscriptionTier reports whether tier is a priced subscription package
func (e *Engine) IsSubscriptionTier(tier models.SubscriptionTier) bool {
	_, ok := e.config.Subscriptions[string(tier)]
	return ok
}

// ComputePrice returns the final price of a configuration in whole currency units.
// It never fails: malformed input degrades to a zero base price.
func (e *Engine) ComputePrice(config models.OrderConfiguration) int64 {
	return e.Quote(config).Total
}

// Quote computes the price of a configuration together with its breakdown
func (e *Engine) Quote(config models.OrderConfiguration) models.PriceQuote {
	quote := models.PriceQuote{Modifiers: []models.PriceModifier{}}

	// Subscription pricing is exclusive: size, material and modifiers are ignored
	if price, ok := e.subscriptionPrice(config.Options.Subscription); ok {
		quote.BaseSource = models.BaseSourceSubscription
		quote.BasePrice = price
		quote.Total = price
		quote.FormattedTotal = utils.FormatRUB(price)
		return quote
	}

	if config.Options.PlateOnly {
		quote.BaseSource = models.BaseSourcePlate
		quote.BasePrice = e.config.PlatePrice
	} else {
		quote.BaseSource, quote.BasePrice = e.basePriceForSize(config.Size)
	}

	if amount := e.config.Retouch[string(config.Options.Retouch)]; amount > 0 {
		quote.Modifiers = append(quote.Modifiers, models.PriceModifier{
			ID:     "retouch_" + string(config.Options.Retouch),
			Amount: amount,
		})
	}
	if config.Options.OldPhotoImprovement {
		quote.Modifiers = append(quote.Modifiers, models.PriceModifier{
			ID:     "old_photo_improvement",
			Amount: e.config.Modifiers.OldPhotoImprovement,
		})
	}
	if config.Options.QRBiography {
		quote.Modifiers = append(quote.Modifiers, models.PriceModifier{
			ID:     "qr_biography",
			Amount: e.config.Modifiers.QRBiography,
		})
	}

	quote.Total = quote.BasePrice
	for _, m := range quote.Modifiers {
		quote.Total += m.Amount
	}
	quote.FormattedTotal = utils.FormatRUB(quote.Total)
	return quote
}

// subscriptionPrice returns the flat price of a recognised subscription tier
func (e *Engine) subscriptionPrice(tier *models.SubscriptionTier) (int64, bool) {
	if tier == nil {
		return 0, false
	}
	price, ok := e.config.Subscriptions[string(*tier)]
	return price, ok
}

// maxFormulaArea bounds the area the formula prices; larger sizes are unpriceable
const maxFormulaArea int64 = 1_000_000_000_000

// basePriceForSize looks the size up in the fixed table, falling back to the area formula
func (e *Engine) basePriceForSize(size string) (string, int64) {
	width, height, ok := ParseSize(size)
	if !ok {
		return models.BaseSourceNone, 0
	}

	if price, exists := e.config.Sizes[FormatSize(width, height)]; exists {
		return models.BaseSourceTable, price
	}

	if width > maxFormulaArea/height {
		return models.BaseSourceNone, 0
	}
	area := width * height
	multiplier := e.config.Formula.SmallMultiplier
	if area > e.config.Formula.AreaThreshold {
		multiplier = e.config.Formula.LargeMultiplier
	}
	return models.BaseSourceFormula, int64(math.Round(float64(area) * multiplier))
}
