// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AdminAuthConfig provides settings needed by the admin login flow.
type AdminAuthConfig interface {
	JWTConfig
	GetAdminEmail() string
	GetAdminPasswordHash() string
	GetAccessTokenTTL() time.Duration
	IsAdminEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// DirectoryConfig provides settings for the facility directory client.
type DirectoryConfig interface {
	GetDirectoryAPIURL() string
	GetDirectoryTimeout() time.Duration
	GetDirectoryCacheTTL() time.Duration
}

// GeocodingConfig provides settings for the geocoding client.
type GeocodingConfig interface {
	GetGoogleMapsAPIKey() string
	GetGeocodingRegion() string
	GetGeocodingInitTimeout() time.Duration
	GetNominatimURL() string
	GetNominatimUserAgent() string
	GetGeocodingCacheTTL() time.Duration
}

// GeoIPConfig provides the optional MaxMind database used for region hints.
type GeoIPConfig interface {
	GetGeoIPDBPath() string
	IsGeoIPEnabled() bool
}

// SearchConfig provides tuning for search sessions.
type SearchConfig interface {
	GetSearchDebounce() time.Duration
	GetSearchNearbyRadiusKm() float64
	GetSearchNearbyLimit() int
	GetSearchClosestLimit() int
	GetSearchSessionTTL() time.Duration
}

// CacheConfig provides the shared Redis cache location.
type CacheConfig interface {
	GetRedisURL() string
	IsCacheEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	AccessTokenTTL       time.Duration
	AdminEmail           string
	AdminPasswordHash    string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RateLimitRPS         float64
	RateLimitBurst       int
	DirectoryAPIURL      string
	DirectoryTimeout     time.Duration
	DirectoryCacheTTL    time.Duration
	GoogleMapsAPIKey     string
	GeocodingRegion      string
	GeocodingInitTimeout time.Duration
	GeocodingCacheTTL    time.Duration
	NominatimURL         string
	NominatimUserAgent   string
	GeoIPDBPath          string
	SearchDebounce       time.Duration
	SearchNearbyRadiusKm float64
	SearchNearbyLimit    int
	SearchClosestLimit   int
	SearchSessionTTL     time.Duration
	RedisURL             string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AdminAuthConfig implementation
func (c *Config) GetAdminEmail() string            { return c.AdminEmail }
func (c *Config) GetAdminPasswordHash() string     { return c.AdminPasswordHash }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }
func (c *Config) IsAdminEnabled() bool {
	return c.AdminEmail != "" && c.AdminPasswordHash != "" && c.JWTAccessSecret != ""
}

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// DirectoryConfig implementation
func (c *Config) GetDirectoryAPIURL() string          { return c.DirectoryAPIURL }
func (c *Config) GetDirectoryTimeout() time.Duration  { return c.DirectoryTimeout }
func (c *Config) GetDirectoryCacheTTL() time.Duration { return c.DirectoryCacheTTL }

// GeocodingConfig implementation
func (c *Config) GetGoogleMapsAPIKey() string            { return c.GoogleMapsAPIKey }
func (c *Config) GetGeocodingRegion() string             { return c.GeocodingRegion }
func (c *Config) GetGeocodingInitTimeout() time.Duration { return c.GeocodingInitTimeout }
func (c *Config) GetNominatimURL() string                { return c.NominatimURL }
func (c *Config) GetNominatimUserAgent() string          { return c.NominatimUserAgent }
func (c *Config) GetGeocodingCacheTTL() time.Duration    { return c.GeocodingCacheTTL }

// GeoIPConfig implementation
func (c *Config) GetGeoIPDBPath() string { return c.GeoIPDBPath }
func (c *Config) IsGeoIPEnabled() bool   { return c.GeoIPDBPath != "" }

// SearchConfig implementation
func (c *Config) GetSearchDebounce() time.Duration   { return c.SearchDebounce }
func (c *Config) GetSearchNearbyRadiusKm() float64   { return c.SearchNearbyRadiusKm }
func (c *Config) GetSearchNearbyLimit() int          { return c.SearchNearbyLimit }
func (c *Config) GetSearchClosestLimit() int         { return c.SearchClosestLimit }
func (c *Config) GetSearchSessionTTL() time.Duration { return c.SearchSessionTTL }

// CacheConfig implementation
func (c *Config) GetRedisURL() string  { return c.RedisURL }
func (c *Config) IsCacheEnabled() bool { return c.RedisURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	httpAddr := getEnv("HTTP_ADDR", ":8080")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             httpAddr,
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:       mustDuration(getEnv("JWT_ACCESS_TTL", "8h")),
		AdminEmail:           strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
		AdminPasswordHash:    getEnv("ADMIN_PASSWORD_HASH", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RateLimitRPS:         mustFloat(getEnv("RATE_LIMIT_RPS", "10")),
		RateLimitBurst:       mustInt(getEnv("RATE_LIMIT_BURST", "20")),
		DirectoryAPIURL:      strings.TrimRight(getEnv("DIRECTORY_API_URL", defaultSelfURL(httpAddr)), "/"),
		DirectoryTimeout:     mustDuration(getEnv("DIRECTORY_TIMEOUT", "10s")),
		DirectoryCacheTTL:    mustDuration(getEnv("DIRECTORY_CACHE_TTL", "30s")),
		GoogleMapsAPIKey:     getEnv("GOOGLE_MAPS_API_KEY", ""),
		GeocodingRegion:      strings.ToLower(getEnv("GEOCODING_REGION", "in")),
		GeocodingInitTimeout: mustDuration(getEnv("GEOCODING_INIT_TIMEOUT", "10s")),
		GeocodingCacheTTL:    mustDuration(getEnv("GEOCODING_CACHE_TTL", "10m")),
		NominatimURL:         strings.TrimRight(getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		NominatimUserAgent:   getEnv("NOMINATIM_USER_AGENT", "GeoResponse/1.0"),
		GeoIPDBPath:          getEnv("GEOIP_DB_PATH", ""),
		SearchDebounce:       mustDuration(getEnv("SEARCH_DEBOUNCE", "300ms")),
		SearchNearbyRadiusKm: mustFloat(getEnv("SEARCH_NEARBY_RADIUS_KM", "20")),
		SearchNearbyLimit:    mustInt(getEnv("SEARCH_NEARBY_LIMIT", "50")),
		SearchClosestLimit:   mustInt(getEnv("SEARCH_CLOSEST_LIMIT", "20")),
		SearchSessionTTL:     mustDuration(getEnv("SEARCH_SESSION_TTL", "30m")),
		RedisURL:             getEnv("REDIS_URL", ""),
	}

	if cfg.DirectoryAPIURL == "" {
		return nil, fmt.Errorf("DIRECTORY_API_URL is required")
	}
	if (cfg.AdminEmail != "" || cfg.AdminPasswordHash != "") && cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required when admin credentials are configured")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPasswordHash == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set together")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.SearchDebounce < 0 {
		return nil, fmt.Errorf("SEARCH_DEBOUNCE must not be negative")
	}

	return cfg, nil
}

// defaultSelfURL points the directory client at this process's own
// registry endpoints, which is the development setup.
func defaultSelfURL(httpAddr string) string {
	host := httpAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/api/v1"
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
