// Package config provides configuration management for Polyglot.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with POLYGLOT_ prefix)
//   - .env files
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./polyglot.yaml, ./configs/polyglot.yaml, ~/.polyglot/polyglot.yaml, /etc/polyglot/polyglot.yaml)
//  3. .env files
//  4. Environment variables (POLYGLOT_ prefix)
//
// # Usage Example
//
//	cfg, err := config.Load("polyglot.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.RequireRegistration(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Variables
//
// BACKEND_ADDR and DB_ADDR are read without prefix; they are required by every
// command that provisions or registers databases. All other keys use the
// POLYGLOT_ prefix and underscores for nested keys:
//   - POLYGLOT_RUNTIME_BINARY=podman
//   - POLYGLOT_POSTGRES_HOST_PORT=5433
//   - POLYGLOT_LOGGING_LEVEL=debug
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrMissingEnv is returned when a required environment variable is unset.
var ErrMissingEnv = errors.New("required environment variable is not set")

const (
	EnvBackendAddr = "BACKEND_ADDR"
	EnvDBAddr      = "DB_ADDR"
)

// Config is the root configuration structure for Polyglot.
type Config struct {
	// Runtime controls how container commands are executed
	Runtime RuntimeConfig `mapstructure:"runtime" yaml:"runtime"`

	// Credentials describes where service passwords come from
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`

	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	MongoDB  MongoDBConfig  `mapstructure:"mongodb" yaml:"mongodb"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j" yaml:"neo4j"`

	// Schema controls the Postgres schema step
	Schema SchemaConfig `mapstructure:"schema" yaml:"schema"`

	// Backend contains coordination backend settings
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Logging contains logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// RuntimeConfig controls the container runtime CLI and the command runner.
type RuntimeConfig struct {
	// Binary is the container runtime CLI (default: docker)
	Binary string `mapstructure:"binary" yaml:"binary" validate:"required"`

	// Timeout bounds every external command
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`

	// DryRun prints commands instead of running them
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// CredentialsConfig describes the secret sources.
type CredentialsConfig struct {
	// Source is either "file" or "keyring"
	Source string `mapstructure:"source" yaml:"source" validate:"oneof=file keyring"`

	// PostgresFile holds the Postgres password on a single line
	PostgresFile string `mapstructure:"postgres_file" yaml:"postgres_file"`

	// Neo4jFile holds the Neo4j password on a single line
	Neo4jFile string `mapstructure:"neo4j_file" yaml:"neo4j_file"`

	// KeyringService is the OS keyring service name used when Source is keyring
	KeyringService string `mapstructure:"keyring_service" yaml:"keyring_service"`
}

// PostgresConfig contains the Postgres container and connection settings.
type PostgresConfig struct {
	Image string `mapstructure:"image" yaml:"image" validate:"required"`

	// Host is where the published port is reachable from this machine
	Host string `mapstructure:"host" yaml:"host" validate:"required"`

	// HostPort is the published port mapped to 5432 in the container
	HostPort int `mapstructure:"host_port" yaml:"host_port" validate:"min=1,max=65535"`

	// User is the administrative role used by the schema step
	User string `mapstructure:"user" yaml:"user" validate:"required"`

	// Database is the administrative database the schema step connects to
	Database string `mapstructure:"database" yaml:"database" validate:"required"`

	// ReadyTimeout bounds the wait for the server to accept connections
	ReadyTimeout time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout" validate:"gte=0"`

	// ConnectTimeout bounds a single connection attempt
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout" validate:"gte=0"`
}

// MongoDBConfig contains the MongoDB container settings.
type MongoDBConfig struct {
	Image string `mapstructure:"image" yaml:"image" validate:"required"`
	Host  string `mapstructure:"host" yaml:"host" validate:"required"`
	Port  int    `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
}

// Neo4jConfig contains the Neo4j container settings.
type Neo4jConfig struct {
	Image    string `mapstructure:"image" yaml:"image" validate:"required"`
	Host     string `mapstructure:"host" yaml:"host" validate:"required"`
	HTTPPort int    `mapstructure:"http_port" yaml:"http_port" validate:"min=1,max=65535"`
	BoltPort int    `mapstructure:"bolt_port" yaml:"bolt_port" validate:"min=1,max=65535"`
	User     string `mapstructure:"user" yaml:"user" validate:"required"`
}

// SchemaConfig controls the Postgres schema step.
type SchemaConfig struct {
	// Transactional wraps the drop/create sequence in one transaction
	Transactional bool `mapstructure:"transactional" yaml:"transactional"`
}

// BackendConfig contains the coordination backend settings.
type BackendConfig struct {
	// Address is the backend hostname (BACKEND_ADDR)
	Address string `mapstructure:"address" yaml:"address"`

	// DBAddr is this host's advertised address (DB_ADDR)
	DBAddr string `mapstructure:"db_addr" yaml:"db_addr"`

	Port int    `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	Path string `mapstructure:"path" yaml:"path" validate:"required,startswith=/"`

	// Timeout bounds the registration round trip
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level" yaml:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`

	// Output is the log output destination (stdout, stderr)
	Output string `mapstructure:"output" yaml:"output" validate:"oneof=stdout stderr"`
}

var cfg *Config

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for polyglot.yaml in standard locations.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (POLYGLOT_ prefix, plus BACKEND_ADDR and DB_ADDR)
//  2. .env file
//  3. Configuration file
//  4. Default values
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("polyglot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.polyglot")
		v.AddConfigPath("/etc/polyglot")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			// An explicitly named but missing file falls back to defaults
			if !isFileNotFoundError(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix("POLYGLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The two addresses keep their historical, unprefixed names
	_ = v.BindEnv("backend.address", EnvBackendAddr) //nolint:errcheck
	_ = v.BindEnv("backend.db_addr", EnvDBAddr)      //nolint:errcheck

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("runtime.binary", "docker")
	v.SetDefault("runtime.timeout", "10m")
	v.SetDefault("runtime.dry_run", false)

	v.SetDefault("credentials.source", "file")
	v.SetDefault("credentials.postgres_file", "./POSTGRES_PASSWORD")
	v.SetDefault("credentials.neo4j_file", "./NEO4J_PASSWORD")
	v.SetDefault("credentials.keyring_service", "polyglot")

	v.SetDefault("postgres.image", "postgres")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.host_port", 5433)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.database", "postgres")
	v.SetDefault("postgres.ready_timeout", "60s")
	v.SetDefault("postgres.connect_timeout", "10s")

	v.SetDefault("mongodb.image", "mongodb/mongodb-community-server:latest")
	v.SetDefault("mongodb.host", "localhost")
	v.SetDefault("mongodb.port", 27017)

	v.SetDefault("neo4j.image", "neo4j:5.24.1")
	v.SetDefault("neo4j.host", "localhost")
	v.SetDefault("neo4j.http_port", 7474)
	v.SetDefault("neo4j.bolt_port", 7687)
	v.SetDefault("neo4j.user", "neo4j")

	v.SetDefault("schema.transactional", true)

	v.SetDefault("backend.address", "")
	v.SetDefault("backend.db_addr", "")
	v.SetDefault("backend.port", 8000)
	v.SetDefault("backend.path", "/api/add-db")
	v.SetDefault("backend.timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

var structValidator = validator.New()

func validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q validation (value: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if cfg.Credentials.Source == "file" {
		if cfg.Credentials.PostgresFile == "" || cfg.Credentials.Neo4jFile == "" {
			return fmt.Errorf("credential file paths are required when source is file")
		}
	}

	if cfg.Credentials.Source == "keyring" && cfg.Credentials.KeyringService == "" {
		return fmt.Errorf("keyring service is required when source is keyring")
	}

	return nil
}

// RequireRegistration checks the values every provisioning command needs
// before any container or network work begins.
func (c *Config) RequireRegistration() error {
	if strings.TrimSpace(c.Backend.Address) == "" {
		return fmt.Errorf("%w: %s", ErrMissingEnv, EnvBackendAddr)
	}
	if strings.TrimSpace(c.Backend.DBAddr) == "" {
		return fmt.Errorf("%w: %s", ErrMissingEnv, EnvDBAddr)
	}
	return nil
}

// BackendURL is the registration endpoint, e.g. http://backend:8000/api/add-db.
func (c *BackendConfig) BackendURL() string {
	return "http://" + net.JoinHostPort(c.Address, strconv.Itoa(c.Port)) + c.Path
}

// Get returns the most recently loaded configuration.
func Get() *Config {
	return cfg
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
