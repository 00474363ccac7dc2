package tenant

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"gopkg.in/yaml.v3"
)

// Directory looks up the tenant bundle for a normalised hostname. A miss
// is reported as ErrTenantNotFound; anything else is a lookup failure.
type Directory interface {
	Lookup(ctx context.Context, host string) (*domain.TenantBranding, error)
}

// StaticDirectory serves a fixed list of tenants
type StaticDirectory struct {
	mu      sync.RWMutex
	tenants []domain.TenantBranding
}

// NewStaticDirectory creates a directory over the given tenants, in order
func NewStaticDirectory(tenants ...domain.TenantBranding) *StaticDirectory {
	return &StaticDirectory{tenants: append([]domain.TenantBranding(nil), tenants...)}
}

// Lookup implements Directory
func (d *StaticDirectory) Lookup(ctx context.Context, host string) (*domain.TenantBranding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lookupIn(d.tenants, host)
}

// Replace swaps the tenant list
func (d *StaticDirectory) Replace(tenants []domain.TenantBranding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tenants = append([]domain.TenantBranding(nil), tenants...)
}

// Tenants returns a copy of the tenant list
func (d *StaticDirectory) Tenants() []domain.TenantBranding {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.TenantBranding(nil), d.tenants...)
}

func lookupIn(tenants []domain.TenantBranding, host string) (*domain.TenantBranding, error) {
	t, ok := MatchTenants(tenants, host)
	if !ok {
		return nil, ErrTenantNotFound
	}
	found := *t
	return &found, nil
}

// tenantsFile is the on-disk layout of a tenant directory
type tenantsFile struct {
	Tenants []domain.TenantBranding `yaml:"tenants"`
}

// LoadTenantsFile reads a YAML tenant directory and validates it against the
// built-in pricing strategies
func LoadTenantsFile(path string) ([]domain.TenantBranding, error) {
	return defaultValidator.LoadTenantsFile(path)
}

// LoadTenantsFile reads and validates a YAML tenant directory
func (v *Validator) LoadTenantsFile(path string) ([]domain.TenantBranding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants file: %w", err)
	}

	var f tenantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tenants file: %w", err)
	}

	seen := make(map[string]bool, len(f.Tenants))
	for i := range f.Tenants {
		t := &f.Tenants[i]
		if err := v.Validate(t); err != nil {
			return nil, fmt.Errorf("tenant %d (%s): %w", i, t.Slug, err)
		}
		if seen[t.Slug] {
			return nil, fmt.Errorf("duplicate tenant slug %q", t.Slug)
		}
		seen[t.Slug] = true
	}
	return f.Tenants, nil
}
