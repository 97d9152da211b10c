package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "attendance_session", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 12, cfg.Session.BcryptCost)
	assert.Equal(t, int64(5*1024*1024), cfg.Import.MaxFileSizeBytes)
	assert.Empty(t, cfg.Mail.Host)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("NOTIFY_RETRY_DELAY", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Notifications.RetryDelay)
}

func TestLoadTimezone(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())

	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.Error(t, err)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
