package tenant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenantsYAML = `
tenants:
  - slug: greenroof
    name: GreenRoof Solar
    hosts: ["greenroof.ie", "*.greenroof.ie"]
    colors:
      primary: "#1B5E20"
      secondary: "#4CAF50"
      accent: "#FFC107"
    equipment:
      solar_panels:
        - id: longi-430
          brand: LONGi
          model: Hi-MO 6 430W
          wattage: 430
      batteries:
        - id: fox-10
          brand: Fox ESS
          model: ECS 10kWh
          capacity_kwh: 10
          price: 5200
    pricing:
      pricing_type: slab
      additional_panel_cost: 300
      slab_pricing:
        - {min_panels: 1, max_panels: 8, price: 5800}
        - {min_panels: 9, max_panels: 14, price: 7400}
      seai_grant: 1800
      default_ev_grant: 300
    energy:
      grid_rate_day: 0.34
      grid_rate_night: 0.17
      export_rate: 0.2
      annual_price_increase: 0.03
      battery_round_trip_efficiency: 0.92
`

func writeTenants(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTenantsFile(t *testing.T) {
	path := writeTenants(t, t.TempDir(), tenantsYAML)

	tenants, err := LoadTenantsFile(path)
	require.NoError(t, err)
	require.Len(t, tenants, 1)

	g := tenants[0]
	assert.Equal(t, "greenroof", g.Slug)
	assert.Equal(t, "#1B5E20", g.Colors.Primary)
	require.Len(t, g.Pricing.SlabPricing, 2)
	assert.True(t, d("7400").Equal(g.Pricing.SlabPricing[1].Price))
	require.Len(t, g.Equipment.Batteries, 1)
	require.NotNil(t, g.Equipment.Batteries[0].Price)
	assert.True(t, d("5200").Equal(*g.Equipment.Batteries[0].Price))
	assert.True(t, d("0.92").Equal(g.Energy.BatteryRoundTripEfficiency))
}

func TestLoadTenantsFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTenantsFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = LoadTenantsFile(writeTenants(t, dir, "tenants: [::"))
	assert.ErrorContains(t, err, "failed to parse")

	_, err = LoadTenantsFile(writeTenants(t, dir, "tenants:\n  - slug: x\n"))
	assert.ErrorIs(t, err, ErrInvalidBranding)

	dup := tenantsYAML + strings.Replace(strings.TrimPrefix(tenantsYAML, "\ntenants:\n"), "greenroof.ie", "other.ie", 1)
	_, err = LoadTenantsFile(writeTenants(t, dir, dup))
	assert.ErrorContains(t, err, "duplicate tenant slug")
}

func TestFileDirectory_Lookup(t *testing.T) {
	d, err := NewFileDirectory(writeTenants(t, t.TempDir(), tenantsYAML))
	require.NoError(t, err)

	b, err := d.Lookup(context.Background(), "quote.greenroof.ie")
	require.NoError(t, err)
	assert.Equal(t, "greenroof", b.Slug)

	_, err = d.Lookup(context.Background(), "elsewhere.ie")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestFileDirectory_ValidateWith(t *testing.T) {
	path := writeTenants(t, t.TempDir(), strings.Replace(tenantsYAML, "pricing_type: slab", "pricing_type: flat_rate", 1))

	_, err := NewFileDirectory(path)
	assert.ErrorIs(t, err, ErrInvalidBranding)
	assert.ErrorContains(t, err, "unknown pricing type")

	reg := economics.NewStrategyRegistry()
	reg.Register("flat_rate", func(domain.Pricing) (economics.PricingStrategy, error) { return flatRate{}, nil })
	d, err := NewFileDirectory(path, ValidateWith(NewValidator(reg)))
	require.NoError(t, err)

	b, err := d.Lookup(context.Background(), "greenroof.ie")
	require.NoError(t, err)
	assert.Equal(t, domain.PricingType("flat_rate"), b.Pricing.PricingType)
}

func TestFileDirectory_WatchReloadsAndPurges(t *testing.T) {
	dir := t.TempDir()
	path := writeTenants(t, dir, tenantsYAML)

	fd, err := NewFileDirectory(path)
	require.NoError(t, err)
	r := NewResolver(fd)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		fd.Wait()
	}()

	reloaded := make(chan struct{}, 1)
	require.NoError(t, fd.Watch(ctx, func() {
		r.Purge()
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}))

	assert.True(t, r.Resolve(ctx, "sunny.ie").Fallback())

	updated := strings.Replace(tenantsYAML, `"greenroof.ie"`, `"greenroof.ie", "sunny.ie"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("directory was not reloaded")
	}

	res := r.Resolve(ctx, "sunny.ie")
	require.NoError(t, res.Err)
	assert.Equal(t, "greenroof", res.Branding.Slug)
}

func TestFileDirectory_BadReloadKeepsTenants(t *testing.T) {
	path := writeTenants(t, t.TempDir(), tenantsYAML)
	fd, err := NewFileDirectory(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("tenants: [::"), 0o644))
	assert.Error(t, fd.Reload())

	assert.Len(t, fd.Tenants(), 1)
}

func TestHTTPDirectory(t *testing.T) {
	bundle := testTenant("greenroof", "greenroof.ie")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tenants/by-host/greenroof.ie":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(bundle)
		case "/tenants/by-host/broken.ie":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/tenants/by-host/garbage.ie":
			w.Write([]byte("{not json"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewHTTPDirectory(srv.URL+"/", srv.Client())
	ctx := context.Background()

	b, err := d.Lookup(ctx, "greenroof.ie")
	require.NoError(t, err)
	assert.Equal(t, "greenroof", b.Slug)
	assert.True(t, bundle.Pricing.BaseSystemPrice.Equal(b.Pricing.BaseSystemPrice))

	_, err = d.Lookup(ctx, "unknown.ie")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = d.Lookup(ctx, "broken.ie")
	assert.ErrorContains(t, err, "status 500")

	_, err = d.Lookup(ctx, "garbage.ie")
	assert.ErrorContains(t, err, "decode")
}

func TestHTTPDirectory_ThroughResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(NewHTTPDirectory(srv.URL, srv.Client()))
	res := r.Resolve(context.Background(), "greenroof.ie")

	assert.ErrorIs(t, res.Err, ErrLookupFailed)
	assert.Equal(t, DefaultSlug, res.Branding.Slug)
}
