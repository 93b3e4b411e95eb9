package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fotokeramika/catalog"
	"fotokeramika/metrics"
	"fotokeramika/models"
	"fotokeramika/pricing"
	"fotokeramika/repository"
	"fotokeramika/storage"
	"fotokeramika/utils"
)

var (
	ErrWizardNotFound         = errors.New("wizard session not found")
	ErrAuthenticationRequired = errors.New("authentication required to submit an order")
	ErrPhotoNotFound          = errors.New("photo not found")
)

// maxPhotosPerOrder caps the photos attached to a single wizard session
const maxPhotosPerOrder = 20

// PendingPhoto is a customer upload held in memory until submission
type PendingPhoto struct {
	Name string
	Data []byte
}

// WizardPhoto describes one photo of a wizard session.
// Pending photos have no URL until the order is submitted.
type WizardPhoto struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	Pending bool   `json:"pending"`
	Size    int    `json:"size,omitempty"`
}

// WizardState is the client view of a wizard session.
// Quote is recomputed from the configuration every time the state is read.
type WizardState struct {
	ID        string                    `json:"id"`
	Config    models.OrderConfiguration `json:"config"`
	Photos    []WizardPhoto             `json:"photos"`
	Quote     models.PriceQuote         `json:"quote"`
	LastOrder *models.SubmittedOrder    `json:"lastOrder,omitempty"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

type wizardSession struct {
	mu        sync.Mutex
	id        string
	config    models.OrderConfiguration
	pending   []PendingPhoto
	lastOrder *models.SubmittedOrder
	touched   time.Time
}

// OrderServiceConfig holds the collaborators of an OrderService
type OrderServiceConfig struct {
	Engine        *pricing.Engine
	Catalog       *catalog.Catalog
	Orders        repository.OrderRepositoryInterface
	Storage       storage.AssetStorage
	WhatsAppPhone string
	RequireAuth   bool
}

// OrderService runs the pricing wizard: it owns one OrderConfiguration per session,
// prices it on every read and submits it to the persistence backend
type OrderService struct {
	engine        *pricing.Engine
	catalog       *catalog.Catalog
	orders        repository.OrderRepositoryInterface
	storage       storage.AssetStorage
	whatsAppPhone string
	requireAuth   bool
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*wizardSession
}

// NewOrderService creates a new OrderService
func NewOrderService(cfg OrderServiceConfig) *OrderService {
	return &OrderService{
		engine:        cfg.Engine,
		catalog:       cfg.Catalog,
		orders:        cfg.Orders,
		storage:       cfg.Storage,
		whatsAppPhone: cfg.WhatsAppPhone,
		requireAuth:   cfg.RequireAuth,
		now:           time.Now,
		sessions:      make(map[string]*wizardSession),
	}
}

// StartWizard opens a session with an empty configuration
func (s *OrderService) StartWizard() WizardState {
	session := &wizardSession{
		id:      uuid.NewString(),
		config:  models.NewOrderConfiguration(),
		touched: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	log.Printf("🧾 Wizard: started session %s", session.id)
	return s.state(session)
}

// Get returns the current state of a session
func (s *OrderService) Get(id string) (WizardState, error) {
	session, err := s.session(id)
	if err != nil {
		return WizardState{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.state(session), nil
}

// Update applies a partial update to the session configuration.
// The update is validated as a whole; on error nothing changes.
func (s *OrderService) Update(id string, req models.OrderUpdateRequest) (WizardState, error) {
	session, err := s.session(id)
	if err != nil {
		return WizardState{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	next := session.config.Clone()
	if req.ServiceType != nil {
		if err := s.selectService(&next, *req.ServiceType); err != nil {
			return WizardState{}, err
		}
	}
	if req.Size != nil {
		if err := s.selectSize(&next, *req.Size); err != nil {
			return WizardState{}, err
		}
	}
	if req.Material != nil {
		if err := s.selectMaterial(&next, *req.Material); err != nil {
			return WizardState{}, err
		}
	}
	if req.Options != nil {
		if err := s.setOptions(&next, *req.Options); err != nil {
			return WizardState{}, err
		}
	}
	if req.CustomText != nil {
		next.CustomText = strings.TrimSpace(*req.CustomText)
	}

	session.config = next
	session.touched = s.now()
	return s.state(session), nil
}

func (s *OrderService) selectService(cfg *models.OrderConfiguration, serviceType models.ServiceType) error {
	if !serviceType.Valid() {
		return &models.ConfigurationError{Field: "serviceType", Reason: fmt.Sprintf("unknown service %q", serviceType)}
	}
	cfg.ServiceType = serviceType
	cfg.Options.PlateOnly = serviceType == models.ServicePlateOnly
	return nil
}

func (s *OrderService) selectSize(cfg *models.OrderConfiguration, size string) error {
	size = strings.TrimSpace(size)
	if size == "" {
		cfg.Size = ""
		return nil
	}
	if _, _, ok := pricing.ParseSize(size); !ok {
		return &models.ConfigurationError{Field: "size", Reason: fmt.Sprintf("%q is not a W×H size", size)}
	}
	if !s.catalog.HasSize(size) {
		return &models.ConfigurationError{Field: "size", Reason: fmt.Sprintf("size %q is not offered", size)}
	}
	cfg.Size = pricing.NormalizeSize(size)
	return nil
}

func (s *OrderService) selectMaterial(cfg *models.OrderConfiguration, material string) error {
	material = strings.TrimSpace(material)
	if material != "" {
		if _, ok := s.catalog.Material(material); !ok {
			return &models.ConfigurationError{Field: "material", Reason: fmt.Sprintf("unknown material %q", material)}
		}
	}
	cfg.Material = material
	return nil
}

func (s *OrderService) setOptions(cfg *models.OrderConfiguration, req models.OrderOptionsRequest) error {
	if req.Retouch != nil {
		if !s.knownRetouch(*req.Retouch) {
			return &models.ConfigurationError{Field: "options.retouch", Reason: fmt.Sprintf("unknown retouch tier %q", *req.Retouch)}
		}
		cfg.Options.Retouch = *req.Retouch
	}
	if req.OldPhotoImprovement != nil {
		cfg.Options.OldPhotoImprovement = *req.OldPhotoImprovement
	}
	if req.QRBiography != nil {
		cfg.Options.QRBiography = *req.QRBiography
	}
	if req.Subscription != nil {
		tier := models.NormalizeSubscription(*req.Subscription)
		if tier != nil && !s.engine.IsSubscriptionTier(*tier) {
			return &models.ConfigurationError{Field: "options.subscription", Reason: fmt.Sprintf("unknown subscription %q", *tier)}
		}
		cfg.Options.Subscription = tier
	}
	return nil
}

func (s *OrderService) knownRetouch(tier models.RetouchTier) bool {
	for _, r := range s.catalog.Retouch {
		if r.ID == tier {
			return true
		}
	}
	return false
}

// AddPhoto queues a customer photo for upload at submission time
func (s *OrderService) AddPhoto(id, name string, data []byte) (WizardState, error) {
	if len(data) == 0 {
		return WizardState{}, &models.ConfigurationError{Field: "photos", Reason: "empty file"}
	}
	session, err := s.session(id)
	if err != nil {
		return WizardState{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if len(session.config.PhotoURLs)+len(session.pending) >= maxPhotosPerOrder {
		return WizardState{}, &models.ConfigurationError{Field: "photos", Reason: fmt.Sprintf("at most %d photos per order", maxPhotosPerOrder)}
	}
	if strings.TrimSpace(name) == "" {
		name = "photo.jpg"
	}
	session.pending = append(session.pending, PendingPhoto{Name: name, Data: data})
	session.touched = s.now()
	return s.state(session), nil
}

// AddPhotoURL attaches an already stored image, such as an editor export.
// A plate design also switches the order to the plate-only service.
func (s *OrderService) AddPhotoURL(id, photoURL string, plate bool) (WizardState, error) {
	session, err := s.session(id)
	if err != nil {
		return WizardState{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if len(session.config.PhotoURLs)+len(session.pending) >= maxPhotosPerOrder {
		return WizardState{}, &models.ConfigurationError{Field: "photos", Reason: fmt.Sprintf("at most %d photos per order", maxPhotosPerOrder)}
	}
	session.config.PhotoURLs = append(session.config.PhotoURLs, photoURL)
	if plate {
		if err := s.selectService(&session.config, models.ServicePlateOnly); err != nil {
			return WizardState{}, err
		}
	}
	session.touched = s.now()
	return s.state(session), nil
}

// RemovePhoto removes the photo at index, counting stored photos first and pending uploads after them
func (s *OrderService) RemovePhoto(id string, index int) (WizardState, error) {
	session, err := s.session(id)
	if err != nil {
		return WizardState{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	stored := len(session.config.PhotoURLs)
	switch {
	case index < 0 || index >= stored+len(session.pending):
		return WizardState{}, ErrPhotoNotFound
	case index < stored:
		session.config.PhotoURLs = append(session.config.PhotoURLs[:index:index], session.config.PhotoURLs[index+1:]...)
	default:
		i := index - stored
		session.pending = append(session.pending[:i:i], session.pending[i+1:]...)
	}
	session.touched = s.now()
	return s.state(session), nil
}

// Reset returns the session to an empty configuration
func (s *OrderService) Reset(id string) (WizardState, error) {
	session, err := s.session(id)
	if err != nil {
		return WizardState{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	session.config = models.NewOrderConfiguration()
	session.pending = nil
	session.touched = s.now()
	return s.state(session), nil
}

// Quote prices an arbitrary configuration without touching any session
func (s *OrderService) Quote(cfg models.OrderConfiguration) models.PriceQuote {
	quote := s.engine.Quote(cfg)
	metrics.RecordQuote(quote.BaseSource)
	return quote
}

// Submit uploads pending photos, prices the configuration, persists the order and resets the session.
// On failure the configuration is left as it was so the customer can retry.
// Photos uploaded before a failure stay attached and are not uploaded again.
func (s *OrderService) Submit(ctx context.Context, id string, identity models.Identity) (*models.SubmittedOrder, error) {
	if s.requireAuth && !identity.Authenticated {
		return nil, ErrAuthenticationRequired
	}
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	thumbnails, err := s.uploadPending(ctx, session)
	if err != nil {
		metrics.RecordOrderSubmission(false)
		return nil, err
	}

	cfg := session.config.Clone()
	price := s.Quote(cfg).Total
	orderNumber := fmt.Sprintf("ORD-%d", s.now().UnixMilli())

	record := models.NewOrderRecord(identity.UserID, orderNumber, cfg, price, cfg.PhotoURLs)
	orderID, err := s.orders.SubmitOrder(ctx, record)
	if err != nil {
		log.Printf("❌ Wizard: failed to submit order %s: %v", orderNumber, err)
		metrics.RecordOrderSubmission(false)
		return nil, err
	}

	submitted := &models.SubmittedOrder{
		ID:           orderID,
		OrderNumber:  orderNumber,
		Price:        price,
		Config:       cfg,
		WhatsAppLink: s.WhatsAppLink(orderNumber, cfg, price),
		Thumbnails:   thumbnails,
	}
	session.lastOrder = submitted
	session.config = models.NewOrderConfiguration()
	session.pending = nil
	session.touched = s.now()

	metrics.RecordOrderSubmission(true)
	log.Printf("✅ Wizard: order %s submitted (id=%s, price=%s)", orderNumber, orderID, utils.FormatRUB(price))
	return submitted, nil
}

// uploadPending moves pending photos to asset storage, returning the preview URLs it managed to create
func (s *OrderService) uploadPending(ctx context.Context, session *wizardSession) ([]string, error) {
	var thumbnails []string
	for len(session.pending) > 0 {
		photo := session.pending[0]
		photoURL, err := s.storage.UploadAsset(ctx, photo.Data, photo.Name)
		if err != nil {
			log.Printf("❌ Wizard: failed to upload %s: %v", photo.Name, err)
			return nil, err
		}
		session.config.PhotoURLs = append(session.config.PhotoURLs, photoURL)
		session.pending = session.pending[1:]

		thumb, err := OptimizeImage(photo.Data, VariantThumb)
		if err != nil {
			log.Printf("⚠️  Wizard: no preview for %s: %v", photo.Name, err)
			continue
		}
		thumbURL, err := s.storage.UploadAsset(ctx, thumb, previewName(photo.Name, VariantThumb))
		if err != nil {
			log.Printf("⚠️  Wizard: preview upload failed for %s: %v", photo.Name, err)
			continue
		}
		thumbnails = append(thumbnails, thumbURL)
	}
	return thumbnails, nil
}

// WhatsAppLink builds the deep link that notifies the workshop about a new order
func (s *OrderService) WhatsAppLink(orderNumber string, cfg models.OrderConfiguration, price int64) string {
	if s.whatsAppPhone == "" {
		return ""
	}
	message := fmt.Sprintf("Новый заказ %s\nУслуга: %s\nРазмер: %s\nМатериал: %s\nСтоимость: %s",
		orderNumber,
		s.catalog.ServiceName(cfg.ServiceType),
		cfg.Size,
		s.catalog.MaterialName(cfg.Material),
		utils.FormatRUB(price),
	)
	return fmt.Sprintf("https://wa.me/%s?text=%s", s.whatsAppPhone, strings.ReplaceAll(url.QueryEscape(message), "+", "%20"))
}

// LastOrder returns the most recent order submitted from a session
func (s *OrderService) LastOrder(id string) (*models.SubmittedOrder, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.lastOrder, nil
}

// EvictIdle drops sessions untouched for longer than ttl and reports how many were removed
func (s *OrderService) EvictIdle(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		// a locked session is in use
		if !session.mu.TryLock() {
			continue
		}
		idle := now.Sub(session.touched) > ttl
		session.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (s *OrderService) session(id string) (*wizardSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrWizardNotFound
	}
	return session, nil
}

// state must be called with session.mu held
func (s *OrderService) state(session *wizardSession) WizardState {
	cfg := session.config.Clone()
	photos := make([]WizardPhoto, 0, len(cfg.PhotoURLs)+len(session.pending))
	for _, u := range cfg.PhotoURLs {
		photos = append(photos, WizardPhoto{Name: photoNameFromURL(u), URL: u})
	}
	for _, p := range session.pending {
		photos = append(photos, WizardPhoto{Name: p.Name, Pending: true, Size: len(p.Data)})
	}
	return WizardState{
		ID:        session.id,
		Config:    cfg,
		Photos:    photos,
		Quote:     s.Quote(cfg),
		LastOrder: session.lastOrder,
		UpdatedAt: session.touched,
	}
}

func photoNameFromURL(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		if i := strings.LastIndex(u.Path, "/"); i >= 0 && i < len(u.Path)-1 {
			return u.Path[i+1:]
		}
	}
	return raw
}
