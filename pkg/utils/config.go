package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
	// AdminPasswordHash is a bcrypt hash of the admin password. Empty
	// disables the admin token endpoint entirely.
	AdminPasswordHash string
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("GAMEHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("GAMEHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "gamehub"
	}

	dur := 24 * time.Hour
	if ttl := os.Getenv("GAMEHUB_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			dur = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:         secret,
		JWTIssuer:         issuer,
		JWTDuration:       dur,
		AdminPasswordHash: os.Getenv("GAMEHUB_ADMIN_PASSWORD_HASH"),
	}
}

type ProviderConfig struct {
	RAWGKey          string
	IGDBClientID     string
	IGDBClientSecret string
}

func LoadProviderConfig() ProviderConfig {
	return ProviderConfig{
		RAWGKey:          os.Getenv("GAMEHUB_RAWG_API_KEY"),
		IGDBClientID:     os.Getenv("GAMEHUB_IGDB_CLIENT_ID"),
		IGDBClientSecret: os.Getenv("GAMEHUB_IGDB_CLIENT_SECRET"),
	}
}

type CacheConfig struct {
	TTL time.Duration
}

// LoadCacheConfig reads the cache freshness window. Default is 7 days;
// GAMEHUB_CACHE_TTL_DAYS overrides it.
func LoadCacheConfig() CacheConfig {
	days := 7
	if v := os.Getenv("GAMEHUB_CACHE_TTL_DAYS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			days = d
		}
	}
	return CacheConfig{TTL: time.Duration(days) * 24 * time.Hour}
}
