package controller

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"fotokeramika/models"
	"fotokeramika/service"
)

const (
	wizardPrefix = "/api/wizard/"
	// maxUploadMemory is the multipart memory limit of a photo upload
	maxUploadMemory = 32 << 20
)

// WizardController handles HTTP requests for the order wizard
type WizardController struct {
	orders   *service.OrderService
	identity service.IdentityProvider
}

// NewWizardController creates a new WizardController
func NewWizardController(orders *service.OrderService, identity service.IdentityProvider) *WizardController {
	if identity == nil {
		identity = service.AnonymousIdentityProvider{}
	}
	return &WizardController{orders: orders, identity: identity}
}

// Start handles POST /api/wizard
func (c *WizardController) Start(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, "StartWizard", http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusCreated, c.orders.StartWizard())
}

// Get handles GET /api/wizard/:id
func (c *WizardController) Get(w http.ResponseWriter, r *http.Request) {
	state, err := c.orders.Get(sessionID(r, wizardPrefix))
	if err != nil {
		writeError(w, "GetWizard", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Update handles PATCH /api/wizard/:id
// Example request:
// PATCH /api/wizard/3f2a...
//
//	{
//	  "serviceType": "photoceramics",
//	  "size": "18×24",
//	  "material": "ceramic-italy",
//	  "options": {"retouch": "basic", "qrBiography": true}
//	}
//
// The response is the wizard state with the recomputed quote.
func (c *WizardController) Update(w http.ResponseWriter, r *http.Request) {
	var req models.OrderUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := c.orders.Update(sessionID(r, wizardPrefix), req)
	if err != nil {
		writeError(w, "UpdateWizard", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// UploadPhotos handles POST /api/wizard/:id/photos (multipart, field "photos" or "file")
func (c *WizardController) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r, wizardPrefix)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		log.Printf("❌ UploadPhotos: failed to parse form: %v", err)
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := append(r.MultipartForm.File["photos"], r.MultipartForm.File["file"]...)
	if len(files) == 0 {
		http.Error(w, "no photos in request", http.StatusBadRequest)
		return
	}

	var state service.WizardState
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read %s", header.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read %s", header.Filename), http.StatusBadRequest)
			return
		}
		state, err = c.orders.AddPhoto(id, header.Filename, data)
		if err != nil {
			writeError(w, "UploadPhotos", err)
			return
		}
	}

	log.Printf("🖼️ UploadPhotos: queued %d photos for wizard %s", len(files), id)
	writeJSON(w, http.StatusOK, state)
}

// RemovePhoto handles DELETE /api/wizard/:id/photos/:index
func (c *WizardController) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	segments := PathSegments(r.URL.Path, wizardPrefix)
	if len(segments) != 3 {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	index, err := strconv.Atoi(segments[2])
	if err != nil {
		http.Error(w, "photo index must be a number", http.StatusBadRequest)
		return
	}
	state, err := c.orders.RemovePhoto(segments[0], index)
	if err != nil {
		writeError(w, "RemovePhoto", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Reset handles POST /api/wizard/:id/reset
func (c *WizardController) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := c.orders.Reset(sessionID(r, wizardPrefix))
	if err != nil {
		writeError(w, "ResetWizard", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Submit handles POST /api/wizard/:id/submit
// Example response:
//
//	{
//	  "id": "128",
//	  "orderNumber": "ORD-1718000000123",
//	  "price": 1300,
//	  "whatsAppLink": "https://wa.me/79999999999?text=..."
//	}
func (c *WizardController) Submit(w http.ResponseWriter, r *http.Request) {
	identity := c.identity.Identify(r.Context(), r.Header.Get("Authorization"))
	order, err := c.orders.Submit(r.Context(), sessionID(r, wizardPrefix), identity)
	if err != nil {
		writeError(w, "SubmitOrder", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Price handles POST /api/price, quoting a configuration without a session
func (c *WizardController) Price(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, "Price", http.MethodPost) {
		return
	}
	cfg := models.NewOrderConfiguration()
	if err := decodeJSON(r, &cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, c.orders.Quote(cfg))
}
