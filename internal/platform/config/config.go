// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server process needs at startup.
type Config struct {
	Addr            string
	DevMode         bool
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaAuditTopic string
	JWTSigningKey   string
	AutosaveWindow  time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv reads configuration from the environment. Empty DATABASE_URL,
// REDIS_URL or KAFKA_BROKERS leave the corresponding backend disabled and the
// process falls back to in-memory equivalents, which keeps local development
// dependency-free.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("PODIUM_ADDR", ":8080"),
		DevMode:         os.Getenv("PODIUM_DEV_MODE") == "true",
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaAuditTopic: envOr("KAFKA_AUDIT_TOPIC", "podium.audit"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AutosaveWindow:  2 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if raw := os.Getenv("PODIUM_AUTOSAVE_WINDOW"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.AutosaveWindow = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
