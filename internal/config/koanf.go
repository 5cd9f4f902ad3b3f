// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/techstack/config.yaml",
	"/etc/techstack/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config populated with defaults. Defaults are loaded
// first and then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:                 DriverDuckDB,
			Path:                   "/data/techstack.duckdb",
			DSN:                    "",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true,
			SeedTaxonomy:           true,
			CheckpointInterval:     5 * time.Minute,
		},
		API: APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"http://localhost:5173"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		LLM: LLMConfig{
			Provider:       LLMProviderOpenAI,
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4-turbo",
			Temperature:    0.2,
			MaxTokens:      500,
			MaxInputChars:  3000,
			Timeout:        60 * time.Second,
			MaxRetries:     3,
			RequestsPerMin: 60,
		},
		Scraper: ScraperConfig{
			UserAgent:       "Mozilla/5.0 (compatible; TechstackBot/1.0)",
			Timeout:         20 * time.Second,
			MaxBodyBytes:    5 << 20, // 5MB
			HeadlessEnabled: false,
			MinTextChars:    200,
		},
		Ingest: IngestConfig{
			Workers:      2,
			QueueSize:    64,
			JobTimeout:   3 * time.Minute,
			MaxBatch:     20,
			JobStorePath: "",
			JobRetention: 7 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			TaxonomyTTL:       5 * time.Minute,
			RecentURLWindow:   2 * time.Minute,
			RecentURLCapacity: 1000,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
//
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Database
	"db_driver":           "database.driver",
	"duckdb_path":         "database.path",
	"duckdb_max_memory":   "database.max_memory",
	"duckdb_threads":      "database.threads",
	"database_url":        "database.dsn",
	"seed_taxonomy":       "database.seed_taxonomy",
	"checkpoint_interval": "database.checkpoint_interval",

	// API
	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// LLM
	"llm_provider":            "llm.provider",
	"openai_api_key":          "llm.api_key",
	"gemini_api_key":          "llm.api_key",
	"llm_api_key":             "llm.api_key",
	"llm_base_url":            "llm.base_url",
	"llm_model":               "llm.model",
	"llm_temperature":         "llm.temperature",
	"llm_max_tokens":          "llm.max_tokens",
	"llm_max_input_chars":     "llm.max_input_chars",
	"llm_timeout":             "llm.timeout",
	"llm_max_retries":         "llm.max_retries",
	"llm_requests_per_minute": "llm.requests_per_minute",

	// Scraper
	"scraper_user_agent":     "scraper.user_agent",
	"scraper_timeout":        "scraper.timeout",
	"scraper_max_body_bytes": "scraper.max_body_bytes",
	"scraper_headless":       "scraper.headless_enabled",
	"scraper_min_text_chars": "scraper.min_text_chars",

	// Ingest
	"ingest_workers":        "ingest.workers",
	"ingest_queue_size":     "ingest.queue_size",
	"ingest_job_timeout":    "ingest.job_timeout",
	"ingest_max_batch":      "ingest.max_batch",
	"ingest_job_store_path": "ingest.job_store_path",
	"ingest_job_retention":  "ingest.job_retention",

	// Cache
	"taxonomy_cache_ttl":  "cache.taxonomy_ttl",
	"recent_url_window":   "cache.recent_url_window",
	"recent_url_capacity": "cache.recent_url_capacity",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - OPENAI_API_KEY -> llm.api_key
//   - CORS_ORIGINS -> security.cors_origins
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
