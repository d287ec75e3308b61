package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "ROUTE_CACHE_TTL", "HISTORY_RETENTION",
		"RETENTION_SCHEDULE", "ORS_API_KEY", "GEOCODE_INTERVAL", "GEOCODE_COUNTRY",
		"CORS_ALLOWED_ORIGINS", "SEED_PATH",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.RouteCacheTTL)
	assert.Equal(t, 168*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, 1100*time.Millisecond, cfg.GeocodeInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Error(t, cfg.RequireDatabase())
	assert.Empty(t, cfg.SeedPath)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/tracker")
	t.Setenv("ROUTE_CACHE_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SEED_PATH", " data/seeds/demo.json ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RouteCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.NoError(t, cfg.RequireDatabase())
	assert.Equal(t, "data/seeds/demo.json", cfg.SeedPath)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOCODE_INTERVAL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "GEOCODE_INTERVAL")
}
