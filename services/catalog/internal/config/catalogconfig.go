package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type CatalogConfig struct {
	// DatabaseURL empty selects the in-memory primary store.
	DatabaseURL  string
	LegacyDBPath string
	CacheTTL     time.Duration
	CacheSize    int
	RedisURL     string
}

// LoadCatalog reads the store and cache settings. In production the primary
// store must be Postgres and the legacy store must live on disk.
func LoadCatalog(isProd bool) (CatalogConfig, error) {
	cfg := CatalogConfig{
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LegacyDBPath: strings.TrimSpace(os.Getenv("LEGACY_DB_PATH")),
		CacheTTL:     parseDurationWithDefault(os.Getenv("CATALOG_CACHE_TTL"), 60*time.Second),
		CacheSize:    parseIntWithDefault(os.Getenv("CATALOG_CACHE_SIZE"), 1024),
		RedisURL:     strings.TrimSpace(os.Getenv("CATALOG_REDIS_URL")),
	}
	if isProd {
		if cfg.DatabaseURL == "" {
			return CatalogConfig{}, errors.New("DATABASE_URL is required in production")
		}
		if cfg.LegacyDBPath == "" {
			return CatalogConfig{}, errors.New("LEGACY_DB_PATH is required in production")
		}
	}
	return cfg, nil
}

type AuthConfig struct {
	JWTSecret []byte
}

func LoadAuth() (AuthConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return AuthConfig{}, errors.New("JWT_SECRET is required")
	}
	return AuthConfig{JWTSecret: []byte(secret)}, nil
}

func parseDurationWithDefault(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseIntWithDefault(v string, def int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
