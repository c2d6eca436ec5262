// Copyright 2026 The Backplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides application configuration through environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
	File          FileConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	TokenCleanupInterval time.Duration
	LockoutMaxAttempts   int
	LockoutDuration      time.Duration
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// FileConfig holds file storage configuration
type FileConfig struct {
	MaxSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:         env.GetString("SERVER_HOST", "0.0.0.0"),
			Port:         env.GetString("SERVER_PORT", "8080"),
			ReadTimeout:  env.GetDuration("SERVER_READ_TIMEOUT_SECONDS", 15, time.Second),
			WriteTimeout: env.GetDuration("SERVER_WRITE_TIMEOUT_SECONDS", 15, time.Second),
			IdleTimeout:  env.GetDuration("SERVER_IDLE_TIMEOUT_SECONDS", 60, time.Second),
		},
		Database: DatabaseConfig{
			Host:            env.GetString("DB_HOST", "localhost"),
			Port:            env.GetString("DB_PORT", "5432"),
			User:            env.GetString("DB_USER", "backplane"),
			Password:        env.GetString("DB_PASSWORD", ""),
			Database:        env.GetString("DB_NAME", "backplane"),
			SSLMode:         env.GetString("DB_SSLMODE", "disable"),
			MaxOpenConns:    env.GetInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.GetInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.GetDuration("DB_CONN_MAX_LIFETIME_MINUTES", 5, time.Minute),
		},
		Auth: AuthConfig{
			TokenCleanupInterval: env.GetDuration("AUTH_TOKEN_CLEANUP_INTERVAL_MINUTES", 60, time.Minute),
			LockoutMaxAttempts:   env.GetInt("AUTH_LOCKOUT_MAX_ATTEMPTS", 5),
			LockoutDuration:      env.GetDuration("AUTH_LOCKOUT_DURATION_MINUTES", 15, time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:       env.GetString("LOG_LEVEL", "info"),
			LogFormat:      env.GetString("LOG_FORMAT", "json"),
			OTELEnabled:    env.GetBool("OTEL_ENABLED", false),
			ServiceName:    env.GetString("OTEL_SERVICE_NAME", "backplane"),
			ServiceVersion: env.GetString("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           env.GetBool("RATELIMIT_ENABLED", true),
			RequestsPerSecond: env.GetFloat64("RATELIMIT_RPS", 10),
			Burst:             env.GetInt("RATELIMIT_BURST", 20),
		},
		File: FileConfig{
			MaxSize: int64(env.GetInt("FILE_MAX_SIZE_BYTES", 32<<20)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	return nil
}

// ConnString builds the pgx connection string.
func (c *DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// loadDotEnv searches for a .env file from the working directory up to the
// filesystem root and loads the first one found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
