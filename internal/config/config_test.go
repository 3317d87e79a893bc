package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_valid(t *testing.T) {
	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.RateLimit.Requests != 60 {
		t.Errorf("Server.RateLimit.Requests = %d, want 60", cfg.Server.RateLimit.Requests)
	}
	if cfg.Backend.BaseURL != "https://api.cebeepredict.com/v1" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Backend.Timeout = %v, want 10s", cfg.Backend.Timeout)
	}
	if cfg.Backend.CircuitBreaker.FailureRatio != 0.5 {
		t.Errorf("Backend.CircuitBreaker.FailureRatio = %v, want 0.5", cfg.Backend.CircuitBreaker.FailureRatio)
	}
	if cfg.Session.Driver != SessionRedis {
		t.Errorf("Session.Driver = %q, want redis", cfg.Session.Driver)
	}
	if cfg.Session.TTL != 8*time.Hour {
		t.Errorf("Session.TTL = %v, want 8h", cfg.Session.TTL)
	}
	if len(cfg.Definitions.Directories) != 1 {
		t.Errorf("Definitions.Directories = %v, want 1 entry", cfg.Definitions.Directories)
	}
	if cfg.Listing.FetchLimit != 500 {
		t.Errorf("Listing.FetchLimit = %d, want 500", cfg.Listing.FetchLimit)
	}
	if cfg.Listing.DefaultPageSize != 25 {
		t.Errorf("Listing.DefaultPageSize = %d, want 25", cfg.Listing.DefaultPageSize)
	}
	// Unset keys keep their defaults.
	if len(cfg.Listing.PageSizes) != 4 {
		t.Errorf("Listing.PageSizes = %v, want defaults", cfg.Listing.PageSizes)
	}
}

func TestLoad_missing_file(t *testing.T) {
	_, err := Load("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("Load() with missing file should return error")
	}
}

func TestLoad_missing_backend(t *testing.T) {
	t.Setenv("CEBEE_BACKEND_BASE_URL", "")
	_, err := Load("testdata/missing_backend.yaml")
	if err == nil {
		t.Fatal("Load() with missing backend should return error")
	}
	if !strings.Contains(err.Error(), "backend.base_url") {
		t.Errorf("error = %v, want mention of backend.base_url", err)
	}
}

func TestLoad_empty_path_uses_defaults(t *testing.T) {
	t.Setenv("CEBEE_BACKEND_BASE_URL", "http://localhost:4000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Listing.FetchLimit != 1000 {
		t.Errorf("default Listing.FetchLimit = %d, want 1000", cfg.Listing.FetchLimit)
	}
	if cfg.Listing.DefaultPageSize != 10 {
		t.Errorf("default Listing.DefaultPageSize = %d, want 10", cfg.Listing.DefaultPageSize)
	}
	if cfg.Session.Driver != SessionMemory {
		t.Errorf("default Session.Driver = %q, want memory", cfg.Session.Driver)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("default LogLevel = %q, want info", cfg.Observability.LogLevel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CEBEE_SERVER_PORT", "3000")
	t.Setenv("CEBEE_BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("CEBEE_BACKEND_TIMEOUT", "3s")
	t.Setenv("CEBEE_OBSERVABILITY_LOG_LEVEL", "error")
	t.Setenv("CEBEE_DEFINITIONS_DIRS", "/a,/b")

	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000 (env override)", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://backend.local" {
		t.Errorf("Backend.BaseURL = %q, want env override", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("Backend.Timeout = %v, want 3s", cfg.Backend.Timeout)
	}
	if cfg.Observability.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error (env override)", cfg.Observability.LogLevel)
	}
	if len(cfg.Definitions.Directories) != 2 {
		t.Errorf("Definitions.Directories = %v, want 2 entries", cfg.Definitions.Directories)
	}
}

// --- Validate ---

func validConfig() *Config {
	cfg := Defaults()
	cfg.Backend.BaseURL = "https://api.cebeepredict.com"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults plus backend", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"non http backend", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, "http(s)"},
		{"bad failure ratio", func(c *Config) { c.Backend.CircuitBreaker.FailureRatio = 2 }, "failure_ratio"},
		{"breaker disabled ignores ratio", func(c *Config) {
			c.Backend.CircuitBreaker.Enabled = false
			c.Backend.CircuitBreaker.FailureRatio = 0
		}, ""},
		{"file driver without path", func(c *Config) { c.Session.Driver = SessionFile }, "session.file_path"},
		{"unknown driver", func(c *Config) { c.Session.Driver = "bolt" }, "session.driver"},
		{"no definitions", func(c *Config) { c.Definitions.Builtin = false }, "definitions"},
		{"default page size not offered", func(c *Config) { c.Listing.DefaultPageSize = 15 }, "default_page_size"},
		{"zero fetch limit", func(c *Config) { c.Listing.FetchLimit = 0 }, "fetch_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() should fail with %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
