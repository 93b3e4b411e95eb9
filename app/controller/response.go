package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"fotokeramika/assets"
	"fotokeramika/models"
	"fotokeramika/render"
	"fotokeramika/repository"
	"fotokeramika/service"
)

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 1 << 20

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Error encoding response: %v", err)
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeError maps domain errors to HTTP statuses
func writeError(w http.ResponseWriter, handler string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s: %v", handler, err)
	} else {
		log.Printf("⚠️  %s: %v", handler, err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	var (
		cfgErr         *models.ConfigurationError
		loadErr        *models.AssetLoadError
		uploadErr      *models.UploadError
		persistenceErr *models.PersistenceError
	)
	switch {
	case errors.Is(err, service.ErrWizardNotFound),
		errors.Is(err, service.ErrEditorNotFound),
		errors.Is(err, service.ErrPhotoNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, assets.ErrStaleLoad):
		return http.StatusConflict
	case errors.As(err, &cfgErr),
		errors.Is(err, service.ErrInvalidEdit),
		errors.Is(err, render.ErrInvalidMultiplier):
		return http.StatusBadRequest
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &uploadErr), errors.As(err, &persistenceErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// methodAllowed writes 405 unless r uses one of methods
func methodAllowed(w http.ResponseWriter, r *http.Request, handler string, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	log.Printf("❌ %s: Method not allowed: %s", handler, r.Method)
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// PathSegments splits the part of path after prefix, e.g.
// PathSegments("/api/wizard/abc/photos/2", "/api/wizard/") -> [abc photos 2]
func PathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// sessionID returns the first path segment after prefix
func sessionID(r *http.Request, prefix string) string {
	segments := PathSegments(r.URL.Path, prefix)
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}
