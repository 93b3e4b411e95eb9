// Package config reads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Backends selectable through ORDER_BACKEND and STORAGE_BACKEND
const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
	BackendDrive    = "drive"
	BackendLocal    = "local"
)

// Config holds every setting of the service
type Config struct {
	Port string `env:"PORT,default=8080"`
	Env  string `env:"ENV,default=development"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST"`
	DBPort      string `env:"DB_PORT,default=5432"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	DBSSLMode   string `env:"DB_SSLMODE,default=disable"`

	RunMigrations bool `env:"RUN_MIGRATIONS,default=false"`

	OrderBackend   string `env:"ORDER_BACKEND,default=postgres"`
	StorageBackend string `env:"STORAGE_BACKEND,default=local"`

	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`
	SupabaseBucket  string `env:"SUPABASE_BUCKET,default=order-photos"`

	RequireAuth bool `env:"REQUIRE_AUTH,default=false"`

	GoogleCredentials string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	DriveFolderID     string `env:"DRIVE_FOLDER_ID"`

	UploadDir     string `env:"UPLOAD_DIR,default=uploads"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// EditorImageSources are extra URL prefixes editor images may come from, separated by ";"
	EditorImageSources []string `env:"EDITOR_IMAGE_SOURCES"`

	AssetLoadTimeout    time.Duration `env:"ASSET_LOAD_TIMEOUT,default=15s"`
	EditorSessionTTL    time.Duration `env:"EDITOR_SESSION_TTL,default=2h"`
	ExportRatePerMinute int           `env:"EXPORT_RATE_PER_MINUTE,default=30"`
	RenderDebug         bool          `env:"RENDER_DEBUG,default=false"`

	ChromePath    string `env:"CHROME_PATH"`
	WhatsAppPhone string `env:"WHATSAPP_PHONE,default=79999999999"`
}

// LoadDotEnv loads .env outside production.
// Overload is used so .env values override system environment variables.
func LoadDotEnv() {
	if os.Getenv("ENV") == "production" {
		return
	}
	envPath := ".env"
	if err := godotenv.Overload(envPath); err != nil {
		log.Printf("⚠️  .env file not found at %s, using system environment variables", envPath)
		return
	}
	log.Printf("✅ Loaded environment variables from %s (overriding system variables)", envPath)
}

// Load decodes the environment into a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	cfg.Port = strings.TrimPrefix(cfg.Port, ":")
	cfg.OrderBackend = strings.ToLower(strings.TrimSpace(cfg.OrderBackend))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backends have what they need
func (c *Config) Validate() error {
	switch c.OrderBackend {
	case BackendPostgres:
		if _, err := c.DatabaseDSN(); err != nil {
			return err
		}
	case BackendSupabase:
		if err := c.requireSupabase(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown ORDER_BACKEND %q (expected %s or %s)", c.OrderBackend, BackendPostgres, BackendSupabase)
	}

	switch c.StorageBackend {
	case BackendLocal:
	case BackendSupabase:
		if err := c.requireSupabase(); err != nil {
			return err
		}
	case BackendDrive:
		if c.GoogleCredentials == "" {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS environment variable is not set")
		}
		if c.DriveFolderID == "" {
			return fmt.Errorf("DRIVE_FOLDER_ID environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected %s, %s or %s)", c.StorageBackend, BackendLocal, BackendSupabase, BackendDrive)
	}

	if c.RequireAuth {
		if err := c.requireSupabase(); err != nil {
			return fmt.Errorf("REQUIRE_AUTH needs Supabase auth: %w", err)
		}
	}

	if c.ExportRatePerMinute <= 0 {
		return fmt.Errorf("EXPORT_RATE_PER_MINUTE must be positive")
	}
	return nil
}

func (c *Config) requireSupabase() error {
	if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY must be set")
	}
	return nil
}

// UsesSupabase reports whether any backend talks to Supabase
func (c *Config) UsesSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseDSN returns DATABASE_URL, or builds a DSN from the DB_* variables
func (c *Config) DatabaseDSN() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode), nil
}
