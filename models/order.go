package models

import (
	"strings"
	"time"
)

// ServiceType identifies which product the wizard is pricing
type ServiceType string

const (
	ServicePhotoCeramics   ServiceType = "photoceramics"
	ServiceCeramicPortrait ServiceType = "ceramic-portrait"
	ServicePlateOnly       ServiceType = "plate-only"
)

// Valid reports whether s is one of the known service types
func (s ServiceType) Valid() bool {
	switch s {
	case ServicePhotoCeramics, ServiceCeramicPortrait, ServicePlateOnly:
		return true
	}
	return false
}

// RetouchTier is the photo retouching level requested by the customer
type RetouchTier string

const (
	RetouchNone           RetouchTier = "none"
	RetouchBasic          RetouchTier = "basic"
	RetouchAdvanced       RetouchTier = "advanced"
	RetouchReconstruction RetouchTier = "reconstruction"
)

// SubscriptionTier is a wholesaler subscription package, keyed by the number of items it covers
type SubscriptionTier string

const (
	Subscription10  SubscriptionTier = "10"
	Subscription30  SubscriptionTier = "30"
	Subscription60  SubscriptionTier = "60"
	Subscription100 SubscriptionTier = "100"
)

// OrderOptions holds the optional extras of an order.
// Subscription is nil when the customer did not pick a wholesale package.
type OrderOptions struct {
	Retouch             RetouchTier       `json:"retouch"`
	OldPhotoImprovement bool              `json:"oldPhotoImprovement"`
	QRBiography         bool              `json:"qrBiography"`
	PlateOnly           bool              `json:"plateOnly"`
	Subscription        *SubscriptionTier `json:"subscription,omitempty"`
}

// OrderConfiguration is the structured order built by the wizard.
// Example: {"serviceType": "photoceramics", "size": "13×18", "material": "ceramic-italy",
// "options": {"retouch": "basic", "qrBiography": true}, "photoUrls": ["https://..."]}
type OrderConfiguration struct {
	ServiceType ServiceType  `json:"serviceType"`
	Size        string       `json:"size"`
	Material    string       `json:"material"`
	Options     OrderOptions `json:"options"`
	CustomText  string       `json:"customText,omitempty"`
	PhotoURLs   []string     `json:"photoUrls"`
}

// NewOrderConfiguration returns the all-empty configuration used at wizard start
func NewOrderConfiguration() OrderConfiguration {
	return OrderConfiguration{
		Options:   OrderOptions{Retouch: RetouchNone},
		PhotoURLs: []string{},
	}
}

// Clone returns a deep copy so callers can hand the configuration out without sharing slices
func (c OrderConfiguration) Clone() OrderConfiguration {
	out := c
	out.PhotoURLs = append([]string(nil), c.PhotoURLs...)
	if out.PhotoURLs == nil {
		out.PhotoURLs = []string{}
	}
	if c.Options.Subscription != nil {
		tier := *c.Options.Subscription
		out.Options.Subscription = &tier
	}
	return out
}

// NormalizeSubscription trims the tier value, returning nil for an empty one
func NormalizeSubscription(raw string) *SubscriptionTier {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	tier := SubscriptionTier(raw)
	return &tier
}

// OrderUpdateRequest is a partial wizard update; nil fields are left untouched.
// Example: {"size": "18×24", "options": {"retouch": "advanced"}}
type OrderUpdateRequest struct {
	ServiceType *ServiceType         `json:"serviceType,omitempty"`
	Size        *string              `json:"size,omitempty"`
	Material    *string              `json:"material,omitempty"`
	CustomText  *string              `json:"customText,omitempty"`
	Options     *OrderOptionsRequest `json:"options,omitempty"`
}

// OrderOptionsRequest is the partial form of OrderOptions.
// An empty subscription string clears the subscription.
type OrderOptionsRequest struct {
	Retouch             *RetouchTier `json:"retouch,omitempty"`
	OldPhotoImprovement *bool        `json:"oldPhotoImprovement,omitempty"`
	QRBiography         *bool        `json:"qrBiography,omitempty"`
	Subscription        *string      `json:"subscription,omitempty"`
}

// OrderID is the identifier returned by the order persistence backend
type OrderID string

// SubmittedOrder is the result of a successful wizard submission
type SubmittedOrder struct {
	ID           OrderID            `json:"id"`
	OrderNumber  string             `json:"orderNumber"`
	Price        int64              `json:"price"`
	Config       OrderConfiguration `json:"config"`
	WhatsAppLink string             `json:"whatsAppLink,omitempty"`
	Thumbnails   []string           `json:"thumbnails,omitempty"`
}

// OrderRecord is the row handed to the persistence backend
type OrderRecord struct {
	UserID      string       `json:"user_id,omitempty"`
	OrderNumber string       `json:"order_number"`
	ServiceType string       `json:"service_type"`
	Size        string       `json:"size"`
	Material    string       `json:"material"`
	Price       int64        `json:"price"`
	Options     OrderOptions `json:"options"`
	PhotoURLs   []string     `json:"photo_urls"`
	CustomText  string       `json:"custom_text,omitempty"`
	Status      string       `json:"status"`
}

// OrderStatusPending is the status of a freshly submitted order
const OrderStatusPending = "pending"

// NewOrderRecord builds the persisted row for a priced configuration.
// photoRefs replaces the configuration's own photo list.
func NewOrderRecord(userID, orderNumber string, config OrderConfiguration, price int64, photoRefs []string) *OrderRecord {
	refs := append([]string{}, photoRefs...)
	return &OrderRecord{
		UserID:      userID,
		OrderNumber: orderNumber,
		ServiceType: string(config.ServiceType),
		Size:        config.Size,
		Material:    config.Material,
		Price:       price,
		Options:     config.Options,
		PhotoURLs:   refs,
		CustomText:  config.CustomText,
		Status:      OrderStatusPending,
	}
}

// StoredOrder is an order as read back from the persistence backend
type StoredOrder struct {
	ID        OrderID   `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	OrderRecord
}
