// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

// Package config loads Techstack configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"time"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	LLM      LLMConfig      `koanf:"llm"`
	Scraper  ScraperConfig  `koanf:"scraper"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Cache    CacheConfig    `koanf:"cache"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging" or "production"
}

// DatabaseConfig selects and tunes the SQL backend.
//
// Driver "duckdb" (default) stores everything in a single embedded file at
// Path. Driver "postgres" connects to DSN through lib/pq and runs the same
// schema.
type DatabaseConfig struct {
	Driver                 string `koanf:"driver"`
	Path                   string `koanf:"path"`
	DSN                    string `koanf:"dsn"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = use NumCPU
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SeedTaxonomy           bool   `koanf:"seed_taxonomy"` // seed default categories when the table is empty

	// CheckpointInterval is how often the DuckDB WAL is flushed into the
	// database file. Ignored for postgres.
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
}

// APIConfig holds API pagination settings
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds CORS and rate limiting settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// LLMConfig configures the language model used by the enrichment pipeline.
//
// Provider "openai" talks to any OpenAI-compatible chat completions endpoint
// at BaseURL. Provider "gemini" uses the Google GenAI SDK. Provider "none"
// disables enrichment; ingestion then falls back to scraped heuristics.
type LLMConfig struct {
	Provider       string        `koanf:"provider"`
	APIKey         string        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url"`
	Model          string        `koanf:"model"`
	Temperature    float64       `koanf:"temperature"`
	MaxTokens      int           `koanf:"max_tokens"`
	MaxInputChars  int           `koanf:"max_input_chars"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RequestsPerMin int           `koanf:"requests_per_minute"`
}

// ScraperConfig configures page retrieval.
type ScraperConfig struct {
	UserAgent    string        `koanf:"user_agent"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxBodyBytes int64         `koanf:"max_body_bytes"`

	// HeadlessEnabled renders pages with a headless browser when the static
	// HTML yields less than MinTextChars of visible text.
	HeadlessEnabled bool `koanf:"headless_enabled"`
	MinTextChars    int  `koanf:"min_text_chars"`
}

// IngestConfig configures the URL ingestion worker pool and job store.
type IngestConfig struct {
	Workers    int           `koanf:"workers"`
	QueueSize  int           `koanf:"queue_size"`
	JobTimeout time.Duration `koanf:"job_timeout"`
	MaxBatch   int           `koanf:"max_batch"`

	// JobStorePath enables the persistent (badger) job store. Empty keeps
	// job state in memory only.
	JobStorePath string        `koanf:"job_store_path"`
	JobRetention time.Duration `koanf:"job_retention"`
}

// CacheConfig controls the in-process caches.
type CacheConfig struct {
	TaxonomyTTL time.Duration `koanf:"taxonomy_ttl"`

	// RecentURLWindow makes a repeated ingest of the same URL within the
	// window return the existing job instead of starting a new one.
	// Zero disables the check.
	RecentURLWindow   time.Duration `koanf:"recent_url_window"`
	RecentURLCapacity int           `koanf:"recent_url_capacity"`
}

// Load loads configuration. It is a thin alias for LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// LLMEnabled reports whether an LLM provider is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.Provider != LLMProviderNone
}
