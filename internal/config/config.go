// Package config loads process configuration for cmd/server: listen
// address, journal directory, database DSN, Kafka brokers, and the
// account exec-ring size, from the environment (with optional .env
// loading) — priority ENV > .env file > defaults.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the process configuration for cmd/server.
type Config struct {
	ListenAddr   string
	JournalDir   string
	DatabaseURL  string
	KafkaBrokers []string
	KafkaTopic   string
	MaxExecs     int
}

// Default returns the configuration used when no environment overrides
// are present.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		JournalDir: "./data/journal",
		MaxExecs:   100,
		KafkaTopic: "matchcore.execs",
	}
}

// Load reads .env (if present) then overrides Default with whatever
// environment variables are set.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("JOURNAL_DIR"); v != "" {
		cfg.JournalDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("MAX_EXECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxExecs = n
		}
	}
	return cfg
}
