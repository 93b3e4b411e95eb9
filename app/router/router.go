package router

import (
	"net/http"

	"fotokeramika/app/controller"
	"fotokeramika/metrics"
)

type Controllers struct {
	Catalog    *controller.CatalogController
	Wizard     *controller.WizardController
	Editor     *controller.EditorController
	OrderSheet *controller.OrderSheetController
	// ExportLimiter guards PNG exports; nil disables limiting
	ExportLimiter *RateLimiter
	// Uploads serves files of the local storage backend under UploadsPrefix when set
	Uploads       http.Handler
	UploadsPrefix string
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func notFound(w http.ResponseWriter) {
	http.Error(w, "Not found", http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// SetupRoutes registers every route on a new mux and returns it wrapped with request metrics
func SetupRoutes(controllers *Controllers) http.Handler {
	mux := http.NewServeMux()

	// Ping endpoint
	mux.HandleFunc("/ping", pingHandler)

	// Prometheus metrics
	mux.Handle("/metrics", metrics.Handler())

	// Catalog and stateless pricing
	mux.HandleFunc("/api/catalog", controllers.Catalog.GetCatalog)
	mux.HandleFunc("/api/price", controllers.Wizard.Price)

	// Wizard routes
	mux.HandleFunc("/api/wizard", controllers.Wizard.Start)
	mux.HandleFunc("/api/wizard/", func(w http.ResponseWriter, r *http.Request) {
		segments := controller.PathSegments(r.URL.Path, "/api/wizard/")
		switch {
		case len(segments) == 1:
			switch r.Method {
			case http.MethodGet:
				controllers.Wizard.Get(w, r)
			case http.MethodPatch:
				controllers.Wizard.Update(w, r)
			default:
				methodNotAllowed(w)
			}
		case len(segments) == 2 && segments[1] == "photos":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			controllers.Wizard.UploadPhotos(w, r)
		case len(segments) == 3 && segments[1] == "photos":
			if r.Method != http.MethodDelete {
				methodNotAllowed(w)
				return
			}
			controllers.Wizard.RemovePhoto(w, r)
		case len(segments) == 2 && segments[1] == "reset":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			controllers.Wizard.Reset(w, r)
		case len(segments) == 2 && segments[1] == "submit":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			controllers.Wizard.Submit(w, r)
		default:
			notFound(w)
		}
	})

	// Editor routes
	export := controllers.Editor.Export
	if controllers.ExportLimiter != nil {
		export = controllers.ExportLimiter.Wrap(export)
	}
	mux.HandleFunc("/api/editors", controllers.Editor.Open)
	mux.HandleFunc("/api/editors/", func(w http.ResponseWriter, r *http.Request) {
		segments := controller.PathSegments(r.URL.Path, "/api/editors/")
		if len(segments) == 1 {
			switch r.Method {
			case http.MethodGet:
				controllers.Editor.Get(w, r)
			case http.MethodDelete:
				controllers.Editor.Close(w, r)
			default:
				methodNotAllowed(w)
			}
			return
		}
		if len(segments) != 2 {
			notFound(w)
			return
		}

		action := segments[1]
		if action == "portrait" {
			controllers.Editor.Portrait(w, r)
			return
		}
		if action == "export" || action == "preview" {
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			if action == "export" {
				export(w, r)
			} else {
				controllers.Editor.Preview(w, r)
			}
			return
		}

		handlers := map[string]http.HandlerFunc{
			"background": controllers.Editor.SetBackground,
			"filters":    controllers.Editor.Filters,
			"text":       controllers.Editor.Text,
			"style":      controllers.Editor.Style,
			"save":       controllers.Editor.Save,
		}
		handler, ok := handlers[action]
		if !ok {
			notFound(w)
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		handler(w, r)
	})

	// Order sheets
	mux.HandleFunc("/api/orders/sheet", controllers.OrderSheet.GetSheet)

	// Local uploads
	if controllers.Uploads != nil && controllers.UploadsPrefix != "" {
		mux.Handle(controllers.UploadsPrefix, http.StripPrefix(controllers.UploadsPrefix, controllers.Uploads))
	}

	return metrics.InstrumentHandler(mux)
}
