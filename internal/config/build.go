package config

import (
	"fmt"
	"net/http"

	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/planstore"
	"github.com/rgehrsitz/solarplan/internal/tenant"
)

// Directory builds the configured tenant directory. A file source returns a
// *tenant.FileDirectory so callers can Watch it. A nil validator checks
// bundles against the built-in pricing strategies.
func (c TenantsConfig) Directory(v *tenant.Validator) (tenant.Directory, error) {
	switch c.Source {
	case SourceFile:
		dir, err := tenant.NewFileDirectory(c.Path, tenant.ValidateWith(v))
		if err != nil {
			return nil, fmt.Errorf("open tenant directory: %w", err)
		}
		return dir, nil
	case SourceHTTP:
		return tenant.NewHTTPDirectory(c.URL, nil), nil
	case SourceBuiltin, "":
		return tenant.BuiltinDirectory(), nil
	default:
		return nil, fmt.Errorf("unknown tenant source %q", c.Source)
	}
}

// Resolver builds a resolver over the configured directory
func (c TenantsConfig) Resolver(v *tenant.Validator) (*tenant.Resolver, tenant.Directory, error) {
	dir, err := c.Directory(v)
	if err != nil {
		return nil, nil, err
	}
	opts := []tenant.Option{
		tenant.WithAmbientHost(c.DefaultHost),
		tenant.WithTimeout(c.Timeout),
		tenant.WithCacheSize(c.CacheSize),
		tenant.WithRetryAfter(c.RetryAfter),
		tenant.WithValidator(v),
	}
	return tenant.NewResolver(dir, opts...), dir, nil
}

// Backend opens the configured plan store backend
func (c StoreConfig) Backend() (planstore.Backend, error) {
	switch c.Backend {
	case BackendMemory:
		return planstore.NewMemoryBackend(), nil
	case BackendFile:
		b, err := planstore.NewFileBackend(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return b, nil
	case BackendSQLite:
		b, err := planstore.NewSQLiteBackend(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// Submitter builds the lead submitter. Without an endpoint leads are logged.
func (c LeadConfig) Submitter() lead.Submitter {
	if c.Endpoint == "" {
		return lead.LogSubmitter{}
	}
	var client *http.Client
	if c.Timeout > 0 {
		client = &http.Client{Timeout: c.Timeout}
	}
	return lead.NewHTTPSubmitter(c.Endpoint, client)
}
