// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.LLM.Model != "gpt-4-turbo" {
		t.Errorf("LLM.Model = %q, want gpt-4-turbo", cfg.LLM.Model)
	}
	if cfg.LLM.MaxInputChars != 3000 {
		t.Errorf("LLM.MaxInputChars = %d, want 3000", cfg.LLM.MaxInputChars)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "DB_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "DATABASE_URL"},
		{"page sizes", func(c *Config) { c.API.MaxPageSize = 1 }, "API_MAX_PAGE_SIZE"},
		{"rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"llm provider", func(c *Config) { c.LLM.Provider = "mystery" }, "LLM_PROVIDER"},
		{"llm base url", func(c *Config) { c.LLM.BaseURL = "ftp://x" }, "LLM_BASE_URL"},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }, "LLM_TEMPERATURE"},
		{"workers", func(c *Config) { c.Ingest.Workers = 0 }, "INGEST_WORKERS"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSkipsDisabledSections(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.LLM.Provider = LLMProviderNone
	cfg.LLM.Temperature = 9
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled sections to skip validation, got %v", err)
	}
	if cfg.LLMEnabled() {
		t.Error("LLMEnabled() should be false for provider none")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"DUCKDB_PATH":    "database.path",
		"OPENAI_API_KEY": "llm.api_key",
		"CORS_ORIGINS":   "security.cors_origins",
		"INGEST_WORKERS": "ingest.workers",
		"HOME":           "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

// LoadWithKoanf reads process environment, so these tests are not parallel.
func TestLoadWithKoanfLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 9100\nllm:\n  provider: none\ningest:\n  workers: 4\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("INGEST_WORKERS", "6")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LLM_TIMEOUT", "5s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100 from file", cfg.Server.Port)
	}
	if cfg.Ingest.Workers != 6 {
		t.Errorf("Ingest.Workers = %d, want 6 from env", cfg.Ingest.Workers)
	}
	if cfg.LLM.Provider != LLMProviderNone {
		t.Errorf("LLM.Provider = %q, want none", cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("LLM.Timeout = %v, want 5s", cfg.LLM.Timeout)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "http://b.test" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Database.Path != "/data/techstack.duckdb" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}
