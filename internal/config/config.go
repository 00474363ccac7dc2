// Package config loads the application configuration: where tenants come
// from, where plans are stored, where leads go and how the process logs.
package config

import (
	"time"

	"github.com/rgehrsitz/solarplan/internal/tenant"
	"github.com/shopspring/decimal"
)

// Tenant directory sources
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
	SourceHTTP    = "http"
)

// Plan store backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the root of solarplan.yaml
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Tenants  TenantsConfig  `yaml:"tenants" json:"tenants"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Lead     LeadConfig     `yaml:"lead" json:"lead"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Property PropertyConfig `yaml:"property" json:"property"`
}

// LoggingConfig selects the log format and level
type LoggingConfig struct {
	Format string `yaml:"format" json:"format"` // json, console or auto
	Level  string `yaml:"level" json:"level"`
}

// TenantsConfig says where tenant branding bundles are looked up
type TenantsConfig struct {
	Source      string        `yaml:"source" json:"source"`
	Path        string        `yaml:"path,omitempty" json:"path,omitempty"`
	URL         string        `yaml:"url,omitempty" json:"url,omitempty"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Watch       bool          `yaml:"watch" json:"watch"`
	DefaultHost string        `yaml:"default_host,omitempty" json:"defaultHost,omitempty"`
	// CacheSize bounds the hosts the resolver remembers
	CacheSize int `yaml:"cache_size,omitempty" json:"cacheSize,omitempty"`
	// RetryAfter is how long a failed directory lookup is remembered
	RetryAfter time.Duration `yaml:"retry_after,omitempty" json:"retryAfter,omitempty"`
}

// StoreConfig selects the plan store backend. Path is a directory for the
// file backend and a database file for sqlite.
type StoreConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// LeadConfig is the lead endpoint. An empty endpoint logs leads instead.
type LeadConfig struct {
	Endpoint string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// ServerConfig is the HTTP API listener
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listenAddr"`
}

// PropertyConfig holds the assumptions behind the property impact estimate
type PropertyConfig struct {
	BaseValue decimal.Decimal `yaml:"base_value" json:"baseValue"`
}

// Default returns a configuration that works without any file: the built-in
// tenant on localhost, plans under ./.solarplan and leads written to the log.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Format: "auto", Level: "info"},
		Tenants: TenantsConfig{
			Source:      SourceBuiltin,
			Timeout:     5 * time.Second,
			DefaultHost: "localhost",
			CacheSize:   tenant.DefaultCacheSize,
			RetryAfter:  tenant.DefaultRetryAfter,
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    ".solarplan",
		},
		Lead:     LeadConfig{Timeout: 15 * time.Second},
		Server:   ServerConfig{ListenAddr: ":8080"},
		Property: PropertyConfig{BaseValue: decimal.NewFromInt(350000)},
	}
}
