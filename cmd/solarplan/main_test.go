package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/solarplan/internal/output"
	"github.com/rgehrsitz/solarplan/internal/planstore"
	"github.com/rgehrsitz/solarplan/internal/tenant"
	"github.com/rgehrsitz/solarplan/internal/tier"
	"github.com/rgehrsitz/solarplan/internal/wizard"
)

// execute runs the CLI with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// fileStoreConfig writes a config that keeps plans in a temp directory
func fileStoreConfig(t *testing.T) (cfgPath, storeDir string) {
	t.Helper()
	dir := t.TempDir()
	storeDir = filepath.Join(dir, "plans")
	cfgPath = filepath.Join(dir, "solarplan.yaml")
	content := fmt.Sprintf("logging:\n  format: json\n  level: error\nstore:\n  backend: file\n  path: %s\n", storeDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, storeDir
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "solarplan", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"tier", "branding", "quote", "plan", "serve", "validate", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "solarplan dev")
}

func TestTier(t *testing.T) {
	out, _, err := execute(t, "tier", "14 Oak Grove, Galway")
	require.NoError(t, err)
	assert.Contains(t, out, "County:         Galway")
	assert.Contains(t, out, tier.Tier1CompetitiveUrban)
	assert.NotContains(t, out, "(default)")

	out, _, err = execute(t, "tier", "1", "Main", "Street,", "Atlantis")
	require.NoError(t, err)
	assert.Contains(t, out, "(not recognised)")
	assert.Contains(t, out, tier.DefaultTierName+" (default)")
}

func TestTier_JSON(t *testing.T) {
	out, _, err := execute(t, "tier", "--format", "json", "Main St, Ennis, Co. Clare")
	require.NoError(t, err)

	var got tierResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Clare", got.County)
	assert.Equal(t, tier.Tier2StandardRegional, got.Tier)
	assert.False(t, got.Defaulted)

	_, _, err = execute(t, "tier", "--format", "xml", "Galway")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestBranding(t *testing.T) {
	out, _, err := execute(t, "--config", "testdata/solarplan.yaml", "branding")
	require.NoError(t, err)
	assert.Contains(t, out, "GreenRoof Solar (greenroof)")
	assert.Contains(t, out, "slab")

	out, stderr, err := execute(t, "--config", "testdata/solarplan.yaml", "branding", "quotes.unknown.example")
	require.NoError(t, err)
	assert.Contains(t, stderr, "showing the default tenant")
	assert.Contains(t, out, tenant.DefaultBranding().Name)
}

func TestQuote(t *testing.T) {
	cfgPath, storeDir := fileStoreConfig(t)

	out, _, err := execute(t, "--config", cfgPath, "quote", "testdata/quote.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "SOLAR PROPOSAL")
	assert.Contains(t, out, "System size:        4.40 kWp")

	out, _, err = execute(t, "--config", cfgPath, "quote", "--format", "json", "testdata/quote.yaml")
	require.NoError(t, err)
	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Plan.Costs)
	assert.True(t, report.Plan.Costs.FinalPrice.Equal(decimal.NewFromInt(9200)))

	entries, _ := os.ReadDir(storeDir)
	assert.Empty(t, entries, "quote does not save a plan")
}

func TestQuote_BadInput(t *testing.T) {
	cfgPath, _ := fileStoreConfig(t)

	_, _, err := execute(t, "--config", cfgPath, "quote", "testdata/missing.yaml")
	assert.ErrorContains(t, err, "failed to read file")

	path := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte("property_type: terraced\n"), 0o600))
	_, _, err = execute(t, "--config", cfgPath, "quote", path)
	assert.ErrorContains(t, err, "address is required")
}

func TestPlanLifecycle(t *testing.T) {
	cfgPath, storeDir := fileStoreConfig(t)

	out, _, err := execute(t, "--config", cfgPath, "plan", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved plan.")

	// Seed the store the way the terminal wizard would
	backend, err := planstore.NewFileBackend(storeDir)
	require.NoError(t, err)
	sess := wizard.NewSession(planstore.New(backend), tenant.DefaultBranding())
	_, err = sess.SetAddress(context.Background(), "14 Oak Grove, Galway", 0, 0)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	out, _, err = execute(t, "--config", cfgPath, "plan", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "14 Oak Grove, Galway")

	_, _, err = execute(t, "--config", cfgPath, "plan", "submit", "--name", "Aoife Byrne", "--email", "nope")
	assert.Error(t, err)

	out, _, err = execute(t, "--config", cfgPath, "plan", "submit", "--name", "Aoife Byrne", "--email", "aoife@example.ie", "--consent")
	require.NoError(t, err)
	assert.Contains(t, out, "Lead submitted for aoife@example.ie")

	out, _, err = execute(t, "--config", cfgPath, "plan", "show", "--format", "json")
	require.NoError(t, err)
	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Plan.UserInfo)
	assert.Equal(t, "Aoife Byrne", report.Plan.UserInfo.FullName)

	out, _, err = execute(t, "--config", cfgPath, "plan", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan cleared.")

	out, _, err = execute(t, "--config", cfgPath, "plan", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved plan.")
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, "validate", "testdata/solarplan.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (tenants: file, store: memory)")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("store:\n  backend: redis\n"), 0o600))
	_, _, err = execute(t, "validate", bad)
	assert.ErrorContains(t, err, `unknown backend "redis"`)

	missingTenants := filepath.Join(t.TempDir(), "tenants-missing.yaml")
	require.NoError(t, os.WriteFile(missingTenants, []byte("tenants:\n  source: file\n  path: /nonexistent/tenants.yaml\n"), 0o600))
	_, _, err = execute(t, "validate", missingTenants)
	assert.ErrorContains(t, err, "tenants:")
}

func TestGlobalFlagsOverrideConfig(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "unknown level")
}
