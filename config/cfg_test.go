package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("MYSQL_DSN", "u:p@tcp(db:3306)/reports?parseTime=true")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OMS_BASE_URL", "https://shop.example.com")
	t.Setenv("RESYNC_WORKER_INTERVAL", "5m")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "u:p@tcp(db:3306)/reports?parseTime=true", cfg.DB.DSN)
	assert.True(t, cfg.DB.Automigrate)
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "https://shop.example.com", cfg.OMS.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Resync.WorkerInterval)
	assert.Equal(t, 24*time.Hour, cfg.Resync.Lookback)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TTL)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[http]
port = "7070"
allowed_origins = ["https://reports.grbpwr.com"]

[oms]
base_url = "https://shop.example.com"
http_timeout = "3s"

[rate_limit]
order_per_minute = 3
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.HTTP.Port)
	assert.Equal(t, []string{"https://reports.grbpwr.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.OMS.HTTPTimeout)
	assert.Equal(t, 3, cfg.RateLimit.OrderPerMinute)
	assert.Equal(t, 120, cfg.RateLimit.IPPerMinute)
}

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("MYSQL_HOST", "db")
	t.Setenv("MYSQL_USER", "reports")
	t.Setenv("MYSQL_PASSWORD", "pw")
	t.Setenv("MYSQL_DATABASE", "grbpwr")

	assert.Equal(t, "reports:pw@tcp(db:3306)/grbpwr?charset=utf8mb4&parseTime=true", dsnFromEnv())

	t.Setenv("MYSQL_PASSWORD", "")
	assert.Empty(t, dsnFromEnv())
}
