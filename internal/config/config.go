package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application configuration.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	// SeedPath is loaded into the in-memory stores when DatabaseURL is empty.
	SeedPath string

	RouteCacheTTL     time.Duration
	HistoryRetention  time.Duration
	RetentionSchedule string

	ORSAPIKey       string
	GeocodeInterval time.Duration
	GeocodeCountry  string

	CORSAllowedOrigins []string
}

// Load reads configuration from .env (when present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:              Get("PORT", "8080"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		SeedPath:          strings.TrimSpace(os.Getenv("SEED_PATH")),
		RetentionSchedule: strings.TrimSpace(os.Getenv("RETENTION_SCHEDULE")),
		ORSAPIKey:         strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		GeocodeCountry:    strings.TrimSpace(os.Getenv("GEOCODE_COUNTRY")),
	}

	var err error
	if cfg.RouteCacheTTL, err = duration("ROUTE_CACHE_TTL", 45*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HistoryRetention, err = duration("HISTORY_RETENTION", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeInterval, err = duration("GEOCODE_INTERVAL", 1100*time.Millisecond); err != nil {
		return Config{}, err
	}

	for _, o := range strings.Split(Get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

// RequireDatabase fails when DATABASE_URL is unset.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, raw)
	}
	return d, nil
}
