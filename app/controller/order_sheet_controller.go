package controller

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"fotokeramika/service"
)

// validSheetFormats is a map of valid format values
var validSheetFormats = map[string]bool{
	"html": true,
	"pdf":  true,
}

// OrderSheetController handles HTTP requests for printable order sheets
type OrderSheetController struct {
	sheets   *service.OrderSheetService
	identity service.IdentityProvider
}

// NewOrderSheetController creates a new OrderSheetController
func NewOrderSheetController(sheets *service.OrderSheetService, identity service.IdentityProvider) *OrderSheetController {
	if identity == nil {
		identity = service.AnonymousIdentityProvider{}
	}
	return &OrderSheetController{sheets: sheets, identity: identity}
}

// GetSheet handles GET /api/orders/sheet?wizard={id}|order={number}&format=html|pdf
// A stored order is only served to the signed-in user who placed it.
func (c *OrderSheetController) GetSheet(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, "GetSheet", http.MethodGet) {
		return
	}

	query := r.URL.Query()
	wizardID := strings.TrimSpace(query.Get("wizard"))
	orderNumber := strings.TrimSpace(query.Get("order"))
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		format = "html"
	}

	if !validSheetFormats[format] {
		log.Printf("❌ GetSheet: Invalid format: %s", format)
		http.Error(w, "Invalid format. Valid formats: html, pdf", http.StatusBadRequest)
		return
	}
	if (wizardID == "") == (orderNumber == "") {
		http.Error(w, "exactly one of wizard or order is required", http.StatusBadRequest)
		return
	}

	var (
		sheet service.OrderSheet
		err   error
	)
	if wizardID != "" {
		sheet, err = c.sheets.FromWizard(wizardID)
	} else {
		identity := c.identity.Identify(r.Context(), r.Header.Get("Authorization"))
		sheet, err = c.sheets.FromOrder(r.Context(), orderNumber, identity)
	}
	if err != nil {
		writeError(w, "GetSheet", err)
		return
	}

	switch format {
	case "html":
		html, err := c.sheets.RenderHTML(sheet)
		if err != nil {
			writeError(w, "GetSheet", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(html); err != nil {
			log.Printf("❌ GetSheet: Error writing HTML response: %v", err)
		}

	case "pdf":
		pdfData, err := c.sheets.RenderPDF(r.Context(), sheet)
		if err != nil {
			writeError(w, "GetSheet", err)
			return
		}
		filename := "order.pdf"
		if sheet.OrderNumber != "" {
			filename = fmt.Sprintf("%s.pdf", sheet.OrderNumber)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(pdfData); err != nil {
			log.Printf("❌ GetSheet: Error writing PDF response: %v", err)
		}
	}
}
