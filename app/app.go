package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/gogpu/gg"

	"fotokeramika/app/controller"
	"fotokeramika/app/router"
	"fotokeramika/assets"
	"fotokeramika/catalog"
	"fotokeramika/config"
	"fotokeramika/db"
	"fotokeramika/pricing"
	"fotokeramika/render"
	"fotokeramika/repository"
	"fotokeramika/service"
	"fotokeramika/storage"
	"fotokeramika/supabase"
)

// exportBurst is how many exports a client may run back to back
const exportBurst = 5

// App is the initialized application
type App struct {
	Handler http.Handler
	janitor *service.Janitor
	usesDB  bool
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.RenderDebug {
		gg.SetLogger(slog.Default())
	}

	engine, err := pricing.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to load pricebook: %w", err)
	}
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	var supabaseClient *supabase.Client
	if cfg.UsesSupabase() {
		supabaseClient, err = supabase.New(supabase.Config{URL: cfg.SupabaseURL, APIKey: cfg.SupabaseAnonKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
	}

	// Initialize order repository
	var orders repository.OrderRepositoryInterface
	usesDB := false
	switch cfg.OrderBackend {
	case config.BackendSupabase:
		orders = repository.NewSupabaseOrderRepository(supabaseClient)
	default:
		dsn, err := cfg.DatabaseDSN()
		if err != nil {
			return nil, err
		}
		if err := db.InitDB(dsn); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		usesDB = true
		if cfg.RunMigrations {
			if err := db.Migrate(db.DB); err != nil {
				db.CloseDB()
				return nil, err
			}
		}
		orders = repository.NewOrderRepository()
	}

	// Initialize asset storage
	var (
		assetStorage storage.AssetStorage
		local        *storage.LocalStorage
	)
	switch cfg.StorageBackend {
	case config.BackendSupabase:
		assetStorage = storage.NewSupabaseStorage(supabaseClient, cfg.SupabaseBucket)
	case config.BackendDrive:
		assetStorage, err = storage.NewDriveStorage(ctx, cfg.GoogleCredentials, cfg.DriveFolderID)
		if err != nil {
			return nil, err
		}
	default:
		local, err = storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		assetStorage = local
	}
	log.Printf("✅ Backends: orders=%s storage=%s", cfg.OrderBackend, cfg.StorageBackend)

	loaderCfg := assets.LoaderConfig{Timeout: cfg.AssetLoadTimeout}
	if local != nil {
		loaderCfg.LocalPrefix = local.PublicURLPrefix()
		loaderCfg.LocalDir = local.Dir()
	}
	fonts, err := render.NewFontBook()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	var identity service.IdentityProvider = service.AnonymousIdentityProvider{}
	if supabaseClient != nil {
		identity = service.NewSupabaseIdentityProvider(supabaseClient)
	}

	// Initialize services
	orderService := service.NewOrderService(service.OrderServiceConfig{
		Engine:        engine,
		Catalog:       cat,
		Orders:        orders,
		Storage:       assetStorage,
		WhatsAppPhone: cfg.WhatsAppPhone,
		RequireAuth:   cfg.RequireAuth,
	})
	editorService := service.NewEditorService(service.EditorServiceConfig{
		Catalog: cat,
		Loader:  assets.NewLoader(loaderCfg),
		Fonts:   fonts,
		Storage: assetStorage,
		Orders:  orderService,

		ImageSources: cfg.EditorImageSources,
	})
	sheetService, err := service.NewOrderSheetService(service.OrderSheetConfig{
		Engine:     engine,
		Catalog:    cat,
		Orders:     orders,
		Wizard:     orderService,
		ChromePath: cfg.ChromePath,
	})
	if err != nil {
		return nil, err
	}

	exportLimiter := router.NewRateLimiter(cfg.ExportRatePerMinute, exportBurst)
	janitor := service.NewJanitor(cfg.EditorSessionTTL, orderService, editorService, exportLimiter)
	if err := janitor.Start(); err != nil {
		return nil, err
	}

	// Create controllers
	controllers := &router.Controllers{
		Catalog:       controller.NewCatalogController(cat, engine),
		Wizard:        controller.NewWizardController(orderService, identity),
		Editor:        controller.NewEditorController(editorService, cat),
		OrderSheet:    controller.NewOrderSheetController(sheetService, identity),
		ExportLimiter: exportLimiter,
	}
	if local != nil {
		controllers.Uploads = http.FileServer(http.Dir(local.Dir()))
		controllers.UploadsPrefix = local.PublicPrefix()
	}

	return &App{
		Handler: router.SetupRoutes(controllers),
		janitor: janitor,
		usesDB:  usesDB,
	}, nil
}

// Close stops background work and releases the database connection
func (a *App) Close() {
	a.janitor.Stop()
	if a.usesDB {
		if err := db.CloseDB(); err != nil {
			log.Printf("⚠️  Failed to close database: %v", err)
		}
	}
}
