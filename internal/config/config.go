// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tac_codec/internal/conversion"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	SQLitePath         string
	PostgresURL        string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string

	NATSURL           string
	NATSSubject       string
	NATSQueue         string
	NATSResultSubject string

	KafkaBrokers []string
	KafkaTopic   string

	CacheSize int
	APIKeys   []string

	// Hints are the default conversion options for the service.
	Hints conversion.Hints
}

// EnvOrDefault returns the value of key, or def when it is unset or empty.
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseList splits a comma separated list, dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := time.ParseDuration(EnvOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cacheSize, err := strconv.Atoi(EnvOrDefault("CACHE_SIZE", "1024"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.New("invalid CACHE_SIZE")
	}

	zone, err := conversion.ParseZoneHandling(os.Getenv("ZONE_HANDLING"))
	if err != nil {
		return nil, fmt.Errorf("ZONE_HANDLING: %w", err)
	}
	validity, err := conversion.ParseValidityFormat(os.Getenv("VALIDITY_FORMAT"))
	if err != nil {
		return nil, fmt.Errorf("VALIDITY_FORMAT: %w", err)
	}
	complete := false
	if v := os.Getenv("COMPLETE_TIMES"); v != "" {
		if complete, err = strconv.ParseBool(v); err != nil {
			return nil, errors.New("invalid COMPLETE_TIMES")
		}
	}

	cfg := &Config{
		HTTPAddr:        EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,

		SQLitePath:         EnvOrDefault("SQLITE_PATH", "tac.db"),
		PostgresURL:        os.Getenv("POSTGRES_URL"),
		ClickHouseAddr:     os.Getenv("CLICKHOUSE_ADDR"),
		ClickHouseDatabase: EnvOrDefault("CLICKHOUSE_DATABASE", "tac"),
		ClickHouseUser:     EnvOrDefault("CLICKHOUSE_USER", "default"),
		ClickHousePassword: os.Getenv("CLICKHOUSE_PASSWORD"),

		NATSURL:           EnvOrDefault("NATS_URL", "nats://localhost:4222"),
		NATSSubject:       EnvOrDefault("NATS_SUBJECT", "tac.raw"),
		NATSQueue:         EnvOrDefault("NATS_QUEUE", "tac-codec"),
		NATSResultSubject: EnvOrDefault("NATS_RESULT_SUBJECT", "tac.parsed"),

		KafkaBrokers: ParseList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvOrDefault("KAFKA_TOPIC", "tac-parsed"),

		CacheSize: cacheSize,
		APIKeys:   ParseList(os.Getenv("API_KEYS")),
		Hints: conversion.Hints{
			ZoneHandling:   zone,
			ValidityFormat: validity,
			CompleteTimes:  complete,
		},
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	if cfg.NATSSubject == "" {
		return nil, errors.New("NATS_SUBJECT is required")
	}

	return cfg, nil
}
