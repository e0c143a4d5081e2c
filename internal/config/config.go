package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageMemory  = "memory"
	StorageSQLite  = "sqlite"
	StorageMongoDB = "mongodb"
)

// Blob drivers.
const (
	BlobMemory = "memory"
	BlobS3     = "s3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Blob      BlobConfig
	Business  BusinessConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// BlobConfig selects where uploaded documents are kept.
type BlobConfig struct {
	Driver      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// BusinessConfig holds the analytics assumptions of the business.
type BusinessConfig struct {
	Type            string
	Timezone        string
	MetricsCacheTTL time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	SnapshotSchedule  string
	WeeklySchedule    string
	ReconcileSchedule string
}

// WhatsAppConfig contains credentials for pushing owner reports through the
// Meta WhatsApp Cloud API. Reports are not pushed when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	OwnerID       string
}

// Enabled reports whether outbound WhatsApp messages can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.OwnerID != ""
}

// SheetsConfig contains configuration required to export snapshots to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the Sheets exporter is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// AuthConfig configures bearer token verification. Header-based identity is
// used when IssuerURL is empty.
type AuthConfig struct {
	IssuerURL string
	ClientID  string
}

// Enabled reports whether OIDC verification is configured.
func (c AuthConfig) Enabled() bool {
	return c.IssuerURL != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	ttl, err := time.ParseDuration(getenvWithDefault("METRICS_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("METRICS_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: strings.ToLower(getenvWithDefault("LOG_LEVEL", "info")),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getenvWithDefault("STORAGE_DRIVER", StorageSQLite)),
			SQLitePath: getenvWithDefault("SQLITE_PATH", "data/hisaab.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "hisaab"),
		},
		Blob: BlobConfig{
			Driver:      strings.ToLower(getenvWithDefault("BLOB_DRIVER", BlobMemory)),
			S3Bucket:    os.Getenv("BLOB_S3_BUCKET"),
			S3Region:    getenvWithDefault("BLOB_S3_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("BLOB_S3_ENDPOINT"),
			S3PathStyle: strings.EqualFold(os.Getenv("BLOB_S3_PATH_STYLE"), "true"),
		},
		Business: BusinessConfig{
			Type:            strings.ToLower(getenvWithDefault("BUSINESS_TYPE", "retail")),
			Timezone:        getenvWithDefault("TIMEZONE", "UTC"),
			MetricsCacheTTL: ttl,
		},
		Reporting: ReportingConfig{
			SnapshotSchedule:  getenvWithDefault("SNAPSHOT_CRON_SCHEDULE", "55 23 * * *"),
			WeeklySchedule:    getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			ReconcileSchedule: getenvWithDefault("RECONCILE_CRON_SCHEDULE", "0 2 * * *"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			OwnerID:       os.Getenv("OWNER_WHATSAPP_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Auth: AuthConfig{
			IssuerURL: os.Getenv("OIDC_ISSUER_URL"),
			ClientID:  os.Getenv("OIDC_CLIENT_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	case StorageMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb driver")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Blob.Driver {
	case BlobMemory:
	case BlobS3:
		if c.Blob.S3Bucket == "" {
			return errors.New("BLOB_S3_BUCKET must be provided for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported BLOB_DRIVER %q", c.Blob.Driver)
	}

	if c.Business.Type == "" {
		return errors.New("BUSINESS_TYPE must not be empty")
	}

	if _, err := time.LoadLocation(c.Business.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Business.Timezone, err)
	}

	if c.Business.MetricsCacheTTL <= 0 {
		return errors.New("METRICS_CACHE_TTL must be positive")
	}

	switch {
	case c.Reporting.SnapshotSchedule == "":
		return errors.New("SNAPSHOT_CRON_SCHEDULE must be provided")
	case c.Reporting.WeeklySchedule == "":
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	case c.Reporting.ReconcileSchedule == "":
		return errors.New("RECONCILE_CRON_SCHEDULE must be provided")
	}

	if c.Auth.IssuerURL != "" && c.Auth.ClientID == "" {
		return errors.New("OIDC_CLIENT_ID must be provided when OIDC_ISSUER_URL is set")
	}

	return nil
}

// Location returns the configured business timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
