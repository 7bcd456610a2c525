package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearAddressEnv makes sure ambient BACKEND_ADDR/DB_ADDR do not leak into tests.
func clearAddressEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBackendAddr, "")
	t.Setenv(EnvDBAddr, "")
}

// TestLoadDefaults tests that default configuration values are loaded correctly.
func TestLoadDefaults(t *testing.T) {
	clearAddressEnv(t)

	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	// Runtime defaults
	if cfg.Runtime.Binary != "docker" {
		t.Errorf("Expected default runtime binary 'docker', got '%s'", cfg.Runtime.Binary)
	}
	if cfg.Runtime.Timeout != 10*time.Minute {
		t.Errorf("Expected default runtime timeout 10m, got %v", cfg.Runtime.Timeout)
	}
	if cfg.Runtime.DryRun {
		t.Errorf("Expected dry_run false by default")
	}

	// Credentials defaults
	if cfg.Credentials.Source != "file" {
		t.Errorf("Expected default credentials source 'file', got '%s'", cfg.Credentials.Source)
	}
	if cfg.Credentials.PostgresFile != "./POSTGRES_PASSWORD" {
		t.Errorf("Expected default postgres password file, got '%s'", cfg.Credentials.PostgresFile)
	}
	if cfg.Credentials.Neo4jFile != "./NEO4J_PASSWORD" {
		t.Errorf("Expected default neo4j password file, got '%s'", cfg.Credentials.Neo4jFile)
	}

	// Service defaults
	if cfg.Postgres.HostPort != 5433 {
		t.Errorf("Expected default postgres host port 5433, got %d", cfg.Postgres.HostPort)
	}
	if cfg.Postgres.ReadyTimeout != 60*time.Second {
		t.Errorf("Expected default postgres ready timeout 60s, got %v", cfg.Postgres.ReadyTimeout)
	}
	if cfg.MongoDB.Image != "mongodb/mongodb-community-server:latest" {
		t.Errorf("Unexpected default mongodb image '%s'", cfg.MongoDB.Image)
	}
	if cfg.MongoDB.Port != 27017 {
		t.Errorf("Expected default mongodb port 27017, got %d", cfg.MongoDB.Port)
	}
	if cfg.Neo4j.Image != "neo4j:5.24.1" {
		t.Errorf("Unexpected default neo4j image '%s'", cfg.Neo4j.Image)
	}
	if cfg.Neo4j.HTTPPort != 7474 || cfg.Neo4j.BoltPort != 7687 {
		t.Errorf("Expected neo4j ports 7474/7687, got %d/%d", cfg.Neo4j.HTTPPort, cfg.Neo4j.BoltPort)
	}
	if !cfg.Schema.Transactional {
		t.Errorf("Expected transactional schema by default")
	}

	// Backend defaults
	if cfg.Backend.Port != 8000 {
		t.Errorf("Expected default backend port 8000, got %d", cfg.Backend.Port)
	}
	if cfg.Backend.Path != "/api/add-db" {
		t.Errorf("Expected default backend path '/api/add-db', got '%s'", cfg.Backend.Path)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("Expected default backend timeout 30s, got %v", cfg.Backend.Timeout)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default logging level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default logging format 'text', got '%s'", cfg.Logging.Format)
	}
}

// TestValidation tests the configuration validation logic.
func TestValidation(t *testing.T) {
	clearAddressEnv(t)

	base, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectErr bool
		errMsg    string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid postgres port - too low",
			mutate:    func(c *Config) { c.Postgres.HostPort = 0 },
			expectErr: true,
			errMsg:    "HostPort",
		},
		{
			name:      "invalid backend port - too high",
			mutate:    func(c *Config) { c.Backend.Port = 70000 },
			expectErr: true,
			errMsg:    "Backend.Port",
		},
		{
			name:      "unknown credential source",
			mutate:    func(c *Config) { c.Credentials.Source = "vault" },
			expectErr: true,
			errMsg:    "Credentials.Source",
		},
		{
			name:      "missing runtime binary",
			mutate:    func(c *Config) { c.Runtime.Binary = "" },
			expectErr: true,
			errMsg:    "Runtime.Binary",
		},
		{
			name:      "backend path without slash",
			mutate:    func(c *Config) { c.Backend.Path = "api/add-db" },
			expectErr: true,
			errMsg:    "Backend.Path",
		},
		{
			name:      "missing credential file",
			mutate:    func(c *Config) { c.Credentials.Neo4jFile = "" },
			expectErr: true,
			errMsg:    "credential file paths are required",
		},
		{
			name: "keyring without service",
			mutate: func(c *Config) {
				c.Credentials.Source = "keyring"
				c.Credentials.KeyringService = ""
			},
			expectErr: true,
			errMsg:    "keyring service is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := validate(&c)
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

// TestAddressesFromEnvironment tests the unprefixed BACKEND_ADDR and DB_ADDR bindings.
func TestAddressesFromEnvironment(t *testing.T) {
	t.Setenv(EnvBackendAddr, "backend.local")
	t.Setenv(EnvDBAddr, "10.0.0.7")

	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Backend.Address != "backend.local" {
		t.Errorf("Expected backend address from BACKEND_ADDR, got '%s'", cfg.Backend.Address)
	}
	if cfg.Backend.DBAddr != "10.0.0.7" {
		t.Errorf("Expected db address from DB_ADDR, got '%s'", cfg.Backend.DBAddr)
	}
	if err := cfg.RequireRegistration(); err != nil {
		t.Errorf("Expected registration settings to be complete, got %v", err)
	}
}

// TestRequireRegistration tests that each missing address is reported by name.
func TestRequireRegistration(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		db      string
		missing string
	}{
		{name: "both missing", missing: EnvBackendAddr},
		{name: "backend missing", db: "10.0.0.7", missing: EnvBackendAddr},
		{name: "db missing", backend: "backend.local", missing: EnvDBAddr},
		{name: "whitespace only", backend: "backend.local", db: "  ", missing: EnvDBAddr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Backend: BackendConfig{Address: tt.backend, DBAddr: tt.db}}
			err := c.RequireRegistration()
			if !errors.Is(err, ErrMissingEnv) {
				t.Fatalf("Expected ErrMissingEnv, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("Expected error to name %s, got '%s'", tt.missing, err.Error())
			}
		})
	}
}

// TestBackendURL tests the registration endpoint construction.
func TestBackendURL(t *testing.T) {
	tests := []struct {
		name     string
		config   BackendConfig
		expected string
	}{
		{
			name:     "hostname",
			config:   BackendConfig{Address: "backend", Port: 8000, Path: "/api/add-db"},
			expected: "http://backend:8000/api/add-db",
		},
		{
			name:     "ipv4",
			config:   BackendConfig{Address: "192.168.1.10", Port: 8000, Path: "/api/add-db"},
			expected: "http://192.168.1.10:8000/api/add-db",
		},
		{
			name:     "ipv6",
			config:   BackendConfig{Address: "::1", Port: 9000, Path: "/api/add-db"},
			expected: "http://[::1]:9000/api/add-db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.BackendURL()
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

// TestEnvironmentVariableOverride tests that prefixed environment variables override config values.
func TestEnvironmentVariableOverride(t *testing.T) {
	clearAddressEnv(t)
	t.Setenv("POLYGLOT_RUNTIME_BINARY", "podman")
	t.Setenv("POLYGLOT_POSTGRES_HOST_PORT", "6543")
	t.Setenv("POLYGLOT_RUNTIME_DRY_RUN", "true")

	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Runtime.Binary != "podman" {
		t.Errorf("Expected runtime binary 'podman' from environment, got '%s'", cfg.Runtime.Binary)
	}
	if cfg.Postgres.HostPort != 6543 {
		t.Errorf("Expected postgres host port 6543 from environment, got %d", cfg.Postgres.HostPort)
	}
	if !cfg.Runtime.DryRun {
		t.Errorf("Expected dry_run true from environment")
	}
}

// TestLoadFromFile tests reading a YAML configuration file.
func TestLoadFromFile(t *testing.T) {
	clearAddressEnv(t)

	path := filepath.Join(t.TempDir(), "polyglot.yaml")
	content := `runtime:
  binary: podman
  timeout: 2m
neo4j:
  image: neo4j:5.26
schema:
  transactional: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Runtime.Binary != "podman" {
		t.Errorf("Expected runtime binary 'podman', got '%s'", cfg.Runtime.Binary)
	}
	if cfg.Runtime.Timeout != 2*time.Minute {
		t.Errorf("Expected runtime timeout 2m, got %v", cfg.Runtime.Timeout)
	}
	if cfg.Neo4j.Image != "neo4j:5.26" {
		t.Errorf("Expected neo4j image 'neo4j:5.26', got '%s'", cfg.Neo4j.Image)
	}
	if cfg.Schema.Transactional {
		t.Errorf("Expected transactional false from file")
	}
	// Untouched keys keep their defaults
	if cfg.MongoDB.Port != 27017 {
		t.Errorf("Expected default mongodb port 27017, got %d", cfg.MongoDB.Port)
	}
}

// TestGet tests the global config getter.
func TestGet(t *testing.T) {
	clearAddressEnv(t)

	_, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	retrieved := Get()
	if retrieved == nil {
		t.Error("Get() returned nil")
		return
	}

	if retrieved.Backend.Port != 8000 {
		t.Errorf("Expected backend port 8000 from Get(), got %d", retrieved.Backend.Port)
	}
}
