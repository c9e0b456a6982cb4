package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSiteDefaults(t *testing.T) {
	cfg, err := LoadSite()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1280, cfg.ViewportDefault)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadSiteOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/site.db")
	t.Setenv("SITE_VIEWPORT_DEFAULT", "375")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := LoadSite()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/site.db", cfg.Database.SQLitePath)
	assert.Equal(t, 375, cfg.ViewportDefault)
	assert.True(t, cfg.Log.Development)
}

func TestLoadNotificationClampsAttempts(t *testing.T) {
	t.Setenv("NOTIF_MAX_ATTEMPTS", "0")
	cfg, err := LoadNotification()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "log", cfg.EmailProvider)
}

func TestLoadRealtimeOrigins(t *testing.T) {
	t.Setenv("REALTIME_ALLOWED_ORIGINS", "https://casaterminal.com,https://admin.casaterminal.com")
	cfg, err := LoadRealtime()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://casaterminal.com", "https://admin.casaterminal.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 600, cfg.RateLimitPerMinute)
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("NOTIF_BATCH_SIZE", "many")
	_, err := LoadNotification()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadSiteTrustedProxies(t *testing.T) {
	cfg, err := LoadSite()
	require.NoError(t, err)
	assert.Empty(t, cfg.TrustedProxies)

	t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.10")
	cfg, err = LoadSite()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.TrustedProxies)
}

func TestLoadNotificationRejectsNonPositivePollInterval(t *testing.T) {
	for _, value := range []string{"0s", "-1s"} {
		t.Setenv("NOTIF_POLL_INTERVAL", value)
		_, err := LoadNotification()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NOTIF_POLL_INTERVAL")
	}
}
