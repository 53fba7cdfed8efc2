package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults applied when the remote config collection has no matching entry.
// TOKEN_EXPIRATION is expressed in minutes everywhere in this codebase.
const (
	DefaultLoginAttemptLimit      = 3
	DefaultTokenExpirationMinutes = 180
)

// Server captures process-level configuration for the auth client shell.
type Server struct {
	Addr             string
	DatabaseURL      string
	RedisURL         string
	IdentityEndpoint string
	IdentityAPIKey   string
	SigningKey       string
	AdminToken       string
	SessionDir       string
	GuardInterval    time.Duration
	ConfigCacheTTL   time.Duration
	MigrateOnStart   bool
	SeedDemo         bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("VLC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	sessionDir := os.Getenv("VLC_SESSION_DIR")
	if sessionDir == "" {
		sessionDir = "."
	}

	return Server{
		Addr:             addr,
		DatabaseURL:      os.Getenv("VLC_DATABASE_URL"),
		RedisURL:         os.Getenv("VLC_REDIS_URL"),
		IdentityEndpoint: os.Getenv("VLC_IDENTITY_ENDPOINT"),
		IdentityAPIKey:   os.Getenv("VLC_IDENTITY_API_KEY"),
		SigningKey:       os.Getenv("VLC_SIGNING_KEY"),
		AdminToken:       os.Getenv("VLC_ADMIN_TOKEN"),
		SessionDir:       sessionDir,
		GuardInterval:    durationFromEnv("VLC_GUARD_INTERVAL", 15*time.Second),
		ConfigCacheTTL:   durationFromEnv("VLC_CONFIG_CACHE_TTL", 30*time.Second),
		MigrateOnStart:   boolFromEnv("VLC_MIGRATE"),
		SeedDemo:         boolFromEnv("VLC_SEED_DEMO"),
	}
}

func boolFromEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// Bare integers are treated as seconds.
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
