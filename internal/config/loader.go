package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SOLARPLAN_"

// Loader reads configuration files and applies environment overrides
type Loader struct {
	// EnvFiles are dotenv files read before the process environment.
	// Missing files are skipped. Process variables win over file values.
	EnvFiles []string

	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that reads .env from the working directory
func NewLoader() *Loader {
	return &Loader{
		EnvFiles:  []string{".env"},
		lookupEnv: os.LookupEnv,
	}
}

// Load returns Default with the file at path (if any) and the environment
// applied on top, then validated. An empty path skips the file.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	env, err := l.environment()
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, env); err != nil {
		return nil, fmt.Errorf("environment override failed: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// environment merges the dotenv files with the SOLARPLAN_* process variables
func (l *Loader) environment() (map[string]string, error) {
	env := map[string]string{}
	for _, file := range l.EnvFiles {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}
		for k, v := range values {
			env[k] = v
		}
	}

	lookup := l.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range envNames {
		if v, ok := lookup(EnvPrefix + name); ok {
			env[EnvPrefix+name] = v
		}
	}
	return env, nil
}

var envNames = []string{
	"LOG_LEVEL", "LOG_FORMAT",
	"STORE_BACKEND", "STORE_PATH",
	"TENANT_DIRECTORY", "TENANT_DIRECTORY_URL", "DEFAULT_HOST",
	"LEAD_ENDPOINT", "LISTEN_ADDR", "PROPERTY_BASE_VALUE",
}

func applyEnv(cfg *Config, env map[string]string) error {
	get := func(name string) (string, bool) {
		v, ok := env[EnvPrefix+name]
		return strings.TrimSpace(v), ok
	}

	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := get("STORE_BACKEND"); ok {
		cfg.Store.Backend = v
	}
	if v, ok := get("STORE_PATH"); ok {
		cfg.Store.Path = v
	}
	// A directory path or URL implies its source
	if v, ok := get("TENANT_DIRECTORY"); ok && v != "" {
		cfg.Tenants.Source = SourceFile
		cfg.Tenants.Path = v
	}
	if v, ok := get("TENANT_DIRECTORY_URL"); ok && v != "" {
		cfg.Tenants.Source = SourceHTTP
		cfg.Tenants.URL = v
	}
	if v, ok := get("DEFAULT_HOST"); ok {
		cfg.Tenants.DefaultHost = v
	}
	if v, ok := get("LEAD_ENDPOINT"); ok {
		cfg.Lead.Endpoint = v
	}
	if v, ok := get("LISTEN_ADDR"); ok {
		cfg.Server.ListenAddr = v
	}
	if v, ok := get("PROPERTY_BASE_VALUE"); ok && v != "" {
		if err := cfg.Property.BaseValue.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sPROPERTY_BASE_VALUE: %w", EnvPrefix, err)
		}
	}
	return nil
}

// Validate checks a configuration for consistency
func Validate(cfg *Config) error {
	if err := validateLogging(cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := validateTenants(cfg.Tenants); err != nil {
		return fmt.Errorf("tenants: %w", err)
	}
	if err := validateStore(cfg.Store); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if cfg.Lead.Endpoint != "" {
		if err := validateURL(cfg.Lead.Endpoint); err != nil {
			return fmt.Errorf("lead: endpoint: %w", err)
		}
	}
	if cfg.Lead.Timeout < 0 {
		return fmt.Errorf("lead: timeout cannot be negative")
	}
	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server: listen_addr is required")
	}
	if cfg.Property.BaseValue.IsNegative() {
		return fmt.Errorf("property: base_value cannot be negative")
	}
	return nil
}

func validateLogging(c LoggingConfig) error {
	switch strings.ToLower(c.Format) {
	case "", "auto", "json", "console":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	switch strings.ToLower(c.Level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	return nil
}

func validateTenants(c TenantsConfig) error {
	switch c.Source {
	case SourceBuiltin:
	case SourceFile:
		if c.Path == "" {
			return fmt.Errorf("path is required for the file source")
		}
	case SourceHTTP:
		if err := validateURL(c.URL); err != nil {
			return fmt.Errorf("url: %w", err)
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.Watch && c.Source != SourceFile {
		return fmt.Errorf("watch is only supported for the file source")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size cannot be negative")
	}
	if c.RetryAfter < 0 {
		return fmt.Errorf("retry_after cannot be negative")
	}
	return nil
}

func validateStore(c StoreConfig) error {
	switch c.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("path is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
