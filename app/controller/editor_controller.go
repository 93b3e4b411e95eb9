package controller

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"fotokeramika/catalog"
	"fotokeramika/service"
)

const editorPrefix = "/api/editors/"

// EditorController handles HTTP requests for the background and plate editors
type EditorController struct {
	editors *service.EditorService
	catalog *catalog.Catalog
}

// NewEditorController creates a new EditorController
func NewEditorController(editors *service.EditorService, c *catalog.Catalog) *EditorController {
	return &EditorController{editors: editors, catalog: c}
}

type openEditorRequest struct {
	Kind service.EditorKind `json:"kind"`
}

type imageRequest struct {
	Ref          string `json:"ref"`
	BackgroundID int    `json:"backgroundId"`
}

type saveRequest struct {
	WizardID string `json:"wizardId"`
}

// Open handles POST /api/editors
// Example request: {"kind": "plate"}
func (c *EditorController) Open(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, "OpenEditor", http.MethodPost) {
		return
	}
	var req openEditorRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := c.editors.Open(req.Kind)
	if err != nil {
		writeError(w, "OpenEditor", err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// Get handles GET /api/editors/:id
func (c *EditorController) Get(w http.ResponseWriter, r *http.Request) {
	state, err := c.editors.Get(sessionID(r, editorPrefix))
	if err != nil {
		writeError(w, "GetEditor", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Close handles DELETE /api/editors/:id
func (c *EditorController) Close(w http.ResponseWriter, r *http.Request) {
	if err := c.editors.Close(sessionID(r, editorPrefix)); err != nil {
		writeError(w, "CloseEditor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetBackground handles POST /api/editors/:id/background
// Example request: {"backgroundId": 3} or {"ref": "https://..."}
func (c *EditorController) SetBackground(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ref := req.Ref
	if req.BackgroundID != 0 {
		bg, ok := c.catalog.Background(req.BackgroundID)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown background %d", req.BackgroundID), http.StatusBadRequest)
			return
		}
		ref = bg.URL
	}
	state, err := c.editors.SetBackground(r.Context(), sessionID(r, editorPrefix), ref)
	if err != nil {
		writeError(w, "SetBackground", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Portrait handles /api/editors/:id/portrait.
// POST with a multipart "file" uploads a photo, POST with {"ref"} places an
// existing image, PATCH moves or scales it and DELETE removes it.
func (c *EditorController) Portrait(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r, editorPrefix)

	var (
		state service.EditorState
		err   error
	)
	switch r.Method {
	case http.MethodPost:
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			state, err = c.uploadPortrait(r, id)
			break
		}
		var req imageRequest
		if decodeErr := decodeJSON(r, &req); decodeErr != nil {
			http.Error(w, decodeErr.Error(), http.StatusBadRequest)
			return
		}
		state, err = c.editors.SetPortrait(r.Context(), id, req.Ref)
	case http.MethodPatch:
		var req service.PortraitTransform
		if decodeErr := decodeJSON(r, &req); decodeErr != nil {
			http.Error(w, decodeErr.Error(), http.StatusBadRequest)
			return
		}
		state, err = c.editors.TransformPortrait(id, req)
	case http.MethodDelete:
		state, err = c.editors.RemovePortrait(id)
	default:
		methodAllowed(w, r, "Portrait", http.MethodPost, http.MethodPatch, http.MethodDelete)
		return
	}
	if err != nil {
		writeError(w, "Portrait", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (c *EditorController) uploadPortrait(r *http.Request, id string) (service.EditorState, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return service.EditorState{}, fmt.Errorf("%w: failed to parse multipart form: %v", service.ErrInvalidEdit, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return service.EditorState{}, fmt.Errorf("%w: file is required", service.ErrInvalidEdit)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return service.EditorState{}, fmt.Errorf("failed to read upload: %w", err)
	}
	log.Printf("🖼️ Portrait upload %s (%d bytes) for editor %s", header.Filename, len(data), id)
	return c.editors.UploadPortrait(r.Context(), id, header.Filename, data)
}

// Filters handles POST /api/editors/:id/filters
// Example request: {"grayscale": true, "adjustments": {"brightness": 0.2, "contrast": -0.1}}
func (c *EditorController) Filters(w http.ResponseWriter, r *http.Request) {
	var req service.FilterUpdate
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := c.editors.UpdateFilters(sessionID(r, editorPrefix), req)
	if err != nil {
		writeError(w, "UpdateFilters", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Text handles POST /api/editors/:id/text
func (c *EditorController) Text(w http.ResponseWriter, r *http.Request) {
	var req service.TextUpdate
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := c.editors.SetText(sessionID(r, editorPrefix), req)
	if err != nil {
		writeError(w, "SetText", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Style handles POST /api/editors/:id/style
func (c *EditorController) Style(w http.ResponseWriter, r *http.Request) {
	var req service.StyleUpdate
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := c.editors.SetStyle(sessionID(r, editorPrefix), req)
	if err != nil {
		writeError(w, "SetStyle", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Export handles GET /api/editors/:id/export?multiplier=n
func (c *EditorController) Export(w http.ResponseWriter, r *http.Request) {
	multiplier := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("multiplier")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "multiplier must be an integer", http.StatusBadRequest)
			return
		}
		multiplier = n
	}

	png, err := c.editors.Export(r.Context(), sessionID(r, editorPrefix), multiplier)
	if err != nil {
		writeError(w, "ExportEditor", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="design.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Preview handles GET /api/editors/:id/preview
func (c *EditorController) Preview(w http.ResponseWriter, r *http.Request) {
	png, err := c.editors.Preview(r.Context(), sessionID(r, editorPrefix))
	if err != nil {
		writeError(w, "PreviewEditor", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Save handles POST /api/editors/:id/save
// Example request: {"wizardId": "3f2a..."}
func (c *EditorController) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.WizardID) == "" {
		http.Error(w, "wizardId is required", http.StatusBadRequest)
		return
	}
	state, err := c.editors.SaveToOrder(r.Context(), sessionID(r, editorPrefix), req.WizardID)
	if err != nil {
		writeError(w, "SaveDesign", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
