package config

import (
	"os"
	"strconv"
	"time"
)

// Policy defaults.
const (
	DefaultAddr          = ":8080"
	DefaultTypingTimeout = 1000 * time.Millisecond
	DefaultHistoryCap    = 200

	// HTTP server limits.
	ReadTimeout    = 10 * time.Second
	WriteTimeout   = 10 * time.Second
	ShutdownGrace  = 15 * time.Second
	MaxHeaderBytes = 1 << 20
)

// Config is the environment-driven server configuration. Every field has a
// local-development default so the server starts with an empty environment.
type Config struct {
	Addr        string
	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ClientURL restricts the WebSocket upgrade origin; empty allows any.
	ClientURL string
	JWTSecret string

	TypingTimeout time.Duration
	// HistoryCap bounds the per-session recent-history list in Redis.
	HistoryCap int64
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Addr:          envOr("ADDR", DefaultAddr),
		DatabaseDSN:   envOr("DATABASE_DSN", "host=localhost user=user password=password dbname=lawchatdb port=5432 sslmode=disable"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		ClientURL:     os.Getenv("CLIENT_URL"),
		JWTSecret:     envOr("JWT_SECRET", "dev-only-secret"),
		TypingTimeout: envDuration("TYPING_TIMEOUT_MS", DefaultTypingTimeout),
		HistoryCap:    int64(envInt("HISTORY_CACHE_CAP", DefaultHistoryCap)),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	ms := envInt(key, 0)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
