package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("METRICS_CACHE_TTL", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.Business.MetricsCacheTTL)
	assert.Equal(t, "UTC", cfg.Business.Timezone)
	assert.Equal(t, "0 20 * * 5", cfg.Reporting.WeeklySchedule)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.Auth.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "STORAGE_DRIVER=memory\nBUSINESS_TYPE=Restaurant\nMETRICS_CACHE_TTL=90s\nTIMEZONE=Africa/Conakry\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	for _, key := range []string{"STORAGE_DRIVER", "BUSINESS_TYPE", "METRICS_CACHE_TTL", "TIMEZONE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "restaurant", cfg.Business.Type)
	assert.Equal(t, 90*time.Second, cfg.Business.MetricsCacheTTL)
	assert.Equal(t, "Africa/Conakry", cfg.Location().String())
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("METRICS_CACHE_TTL", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Storage:   StorageConfig{Driver: StorageMemory},
			Blob:      BlobConfig{Driver: BlobMemory},
			Business:  BusinessConfig{Type: "retail", Timezone: "UTC", MetricsCacheTTL: time.Minute},
			Reporting: ReportingConfig{SnapshotSchedule: "x", WeeklySchedule: "y", ReconcileSchedule: "z"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"missing port":      func(c *Config) { c.Server.Port = "" },
		"unknown storage":   func(c *Config) { c.Storage.Driver = "redis" },
		"mongo without uri": func(c *Config) { c.Storage.Driver = StorageMongoDB },
		"s3 without bucket": func(c *Config) { c.Blob.Driver = BlobS3 },
		"bad timezone":      func(c *Config) { c.Business.Timezone = "Mars/Olympus" },
		"zero ttl":          func(c *Config) { c.Business.MetricsCacheTTL = 0 },
		"oidc without id":   func(c *Config) { c.Auth.IssuerURL = "https://issuer" },
		"no weekly cron":    func(c *Config) { c.Reporting.WeeklySchedule = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
