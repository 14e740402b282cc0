// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	JWT      JWT
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Postgres captures the request and directory store connection.
type Postgres struct {
	// DSN is empty when running on in-memory stores.
	DSN string
}

// Redis captures the directory cache connection.
type Redis struct {
	// URL is empty when caching is disabled.
	URL      string
	CacheTTL time.Duration
}

// Kafka captures the audit publisher connection.
type Kafka struct {
	// Brokers is empty when the audit trail stays local.
	Brokers []string
	Topic   string
}

// JWT captures token validation settings.
type JWT struct {
	SigningKey string
	Issuer     string
	Audience   string
	TokenTTL   time.Duration
}

// FromEnv builds a Config from environment variables. Every value has a
// development default; production deployments override them.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("DRIVEFLOW_ADDR", ":8080"),
			RequestTimeout:  envDurationOr("DRIVEFLOW_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: envDurationOr("DRIVEFLOW_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("DRIVEFLOW_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:      os.Getenv("DRIVEFLOW_REDIS_URL"),
			CacheTTL: envDurationOr("DRIVEFLOW_DIRECTORY_CACHE_TTL", 5*time.Minute),
		},
		Kafka: Kafka{
			Brokers: envList("DRIVEFLOW_KAFKA_BROKERS"),
			Topic:   envOr("DRIVEFLOW_KAFKA_AUDIT_TOPIC", "driveflow.audit"),
		},
		JWT: JWT{
			// Override in production.
			SigningKey: envOr("DRIVEFLOW_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envOr("DRIVEFLOW_JWT_ISSUER", "driveflow"),
			Audience:   envOr("DRIVEFLOW_JWT_AUDIENCE", "driveflow-api"),
			TokenTTL:   envDurationOr("DRIVEFLOW_JWT_TOKEN_TTL", time.Hour),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
