package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const siteYAML = `site:
  name: Rooftop 160
  max_battery_capacity: 160
  max_charging_rate: 100
  storage_efficiency: 0.92
  max_sell_to_grid: 700
  max_buy_from_grid: 700
`

func TestLoadMergesSiteFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "sites/rooftop.yaml", siteYAML)
	write(t, dir, "forecast.csv", "")
	path := write(t, dir, "config.yaml", `site_file: sites/rooftop.yaml
site:
  max_sell_to_grid: 0
dispatch:
  variant: B
  timeout: 30s
  max_nodes: 5000
data:
  path: forecast.csv
  periods: 48
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Rooftop 160", c.Site.Name)
	assert.Equal(t, filepath.Join(dir, "forecast.csv"), c.Data.Path)
	assert.Equal(t, 48, c.Data.Periods)
	assert.Equal(t, 30*time.Second, c.Dispatch.Timeout)

	p := c.Site.ToModelParams()
	assert.Equal(t, 160.0, p.MaxBatteryCapacity)
	assert.Equal(t, 0.0, p.MaxSellToGrid)
	assert.Equal(t, 700.0, p.MaxBuyFromGrid)

	h := model.HorizonFromPeriods([]model.Period{{PVProduction: 1}})
	req := c.Request(h)
	assert.Equal(t, formulation.MixedInteger, req.Variant)
	assert.Equal(t, 5000, req.MaxNodes)
	assert.Equal(t, 30*time.Second, req.Timeout)
	assert.Equal(t, p, req.Inputs.Site)
	assert.Equal(t, 1, req.Inputs.Horizon.Len())
}

func TestLoadDefaults(t *testing.T) {
	path := write(t, t.TempDir(), "config.yaml", "data:\n  periods: 0\n")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "A", c.Dispatch.Variant)
	assert.Equal(t, model.DefaultSiteParams(), c.Site.ToModelParams())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"variant", Config{Dispatch: DispatchConfig{Variant: "C"}}, "variant"},
		{"solver", Config{Dispatch: DispatchConfig{Variant: "A", Solver: "cplex"}}, "solver"},
		{"timeout", Config{Dispatch: DispatchConfig{Variant: "A", Timeout: -time.Second}}, "timeout"},
		{"max nodes", Config{Dispatch: DispatchConfig{Variant: "A", MaxNodes: -1}}, "max_nodes"},
		{"periods", Config{Dispatch: DispatchConfig{Variant: "A"}, Data: DataConfig{Periods: -1}}, "periods"},
		{"efficiency", Config{Dispatch: DispatchConfig{Variant: "A"}, Site: SiteConfig{StorageEfficiency: Float(1.5)}}, "storage_efficiency"},
		{"capacity", Config{Dispatch: DispatchConfig{Variant: "A"}, Site: SiteConfig{MaxBatteryCapacity: Float(-1)}}, "max_battery_capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var cfg *model.ConfigurationError
			require.ErrorAs(t, err, &cfg)
			assert.Equal(t, tt.field, cfg.Field)
			assert.Equal(t, solver.CodeInvalidConfig, solver.Kind(err))
		})
	}

	ok := Config{Dispatch: DispatchConfig{Variant: "b", Solver: solver.BranchAndBoundName}}
	assert.NoError(t, ok.Validate())
}

func TestMergeSite(t *testing.T) {
	base := SiteConfig{Name: "base", MaxBatteryCapacity: Float(160), MaxChargingRate: Float(100)}
	out := MergeSite(base, SiteConfig{MaxChargingRate: Float(0)})
	assert.Equal(t, "base", out.Name)
	assert.Equal(t, 160.0, *out.MaxBatteryCapacity)
	assert.Equal(t, 0.0, *out.MaxChargingRate)
	assert.Nil(t, out.StorageEfficiency)
}

func TestListSites(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b_rooftop.yaml", siteYAML)
	write(t, dir, "a_bare.yaml", "site:\n  max_battery_capacity: 0\n")
	write(t, dir, "broken.yaml", "site: [")
	write(t, dir, "notes.txt", "ignored")

	sites, skipped, err := ListSites(dir)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "a_bare", sites[0].ID)
	assert.Equal(t, "a_bare", sites[0].Site.Name)
	assert.Equal(t, "Rooftop 160", sites[1].Site.Name)
	assert.Contains(t, skipped, "broken.yaml")

	_, _, err = ListSites(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "A", cfg.Dispatch.Variant)
	assert.Equal(t, 48, cfg.Data.Periods)
	assert.FileExists(t, cfg.Data.Path)
	assert.Equal(t, model.DefaultSiteParams(), cfg.Site.ToModelParams())

	sites, skipped, err := ListSites(filepath.Join("..", "..", "examples", "sites"))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	for _, s := range sites {
		assert.NoError(t, s.Site.ToModelParams().Validate(), s.ID)
	}
}
