package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load site parameters from a separate YAML (e.g. examples/sites/*.yaml).
	// If both SiteFile and Site are provided, Site overrides SiteFile field by field.
	SiteFile string         `yaml:"site_file"`
	Site     SiteConfig     `yaml:"site"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Data     DataConfig     `yaml:"data"`
}

// SiteConfig mirrors model.SiteParams. Fields are pointers so that an
// explicit 0 (no battery, no export) is distinguishable from "not set".
type SiteConfig struct {
	Name               string   `yaml:"name" json:"name,omitempty"`
	MaxBatteryCapacity *float64 `yaml:"max_battery_capacity" json:"max_battery_capacity,omitempty"`
	MaxChargingRate    *float64 `yaml:"max_charging_rate" json:"max_charging_rate,omitempty"`
	StorageEfficiency  *float64 `yaml:"storage_efficiency" json:"storage_efficiency,omitempty"`
	MaxSellToGrid      *float64 `yaml:"max_sell_to_grid" json:"max_sell_to_grid,omitempty"`
	MaxBuyFromGrid     *float64 `yaml:"max_buy_from_grid" json:"max_buy_from_grid,omitempty"`
}

type DispatchConfig struct {
	Variant  string        `yaml:"variant"`
	Solver   string        `yaml:"solver"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxNodes int           `yaml:"max_nodes"`
}

type DataConfig struct {
	Path string `yaml:"path"`
	// Periods keeps the first N rows of the forecast (0 = all).
	Periods int `yaml:"periods"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if c.Dispatch.Variant == "" {
		c.Dispatch.Variant = string(formulation.Linear)
	}
	if c.Data.Path != "" && !filepath.IsAbs(c.Data.Path) {
		c.Data.Path = resolve(path, c.Data.Path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.SiteFile != "" {
		loaded, err := LoadSiteFile(resolve(path, c.SiteFile))
		if err != nil {
			return nil, err
		}
		c.Site = MergeSite(loaded, c.Site)
	}
	return &c, nil
}

// resolve interprets rel relative to the config file directory, falling back
// to the path as given (relative to cwd) if that doesn't exist.
func resolve(configPath, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	cand := filepath.Join(filepath.Dir(configPath), rel)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return rel
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := formulation.ParseVariant(c.Dispatch.Variant); err != nil {
		return fmt.Errorf("dispatch config invalid: %w", err)
	}
	if c.Dispatch.Solver != "" {
		if _, err := solver.New(c.Dispatch.Solver, solver.Options{}); err != nil {
			return fmt.Errorf("dispatch config invalid: %w", &model.ConfigurationError{
				Field:  "solver",
				Reason: fmt.Sprintf("must be one of %s, got %q", strings.Join(solver.Names(), ", "), c.Dispatch.Solver),
			})
		}
	}
	if c.Dispatch.Timeout < 0 {
		return fmt.Errorf("dispatch config invalid: %w", &model.ConfigurationError{Field: "timeout", Reason: "must be >= 0"})
	}
	if c.Dispatch.MaxNodes < 0 {
		return fmt.Errorf("dispatch config invalid: %w", &model.ConfigurationError{Field: "max_nodes", Reason: "must be >= 0"})
	}
	if c.Data.Periods < 0 {
		return fmt.Errorf("data config invalid: %w", &model.ConfigurationError{Field: "periods", Reason: "must be >= 0"})
	}
	if err := c.Site.ToModelParams().Validate(); err != nil {
		return fmt.Errorf("site config invalid: %w", err)
	}
	return nil
}

// Request builds the dispatch request for a horizon. The config must be valid.
func (c *Config) Request(h model.Horizon) dispatch.Request {
	v, _ := formulation.ParseVariant(c.Dispatch.Variant)
	return dispatch.Request{
		Inputs:   model.Inputs{Horizon: h, Site: c.Site.ToModelParams()},
		Variant:  v,
		Solver:   c.Dispatch.Solver,
		Timeout:  c.Dispatch.Timeout,
		MaxNodes: c.Dispatch.MaxNodes,
	}
}

// ToModelParams fills unset fields from model.DefaultSiteParams.
func (s SiteConfig) ToModelParams() model.SiteParams {
	p := model.DefaultSiteParams()
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.MaxBatteryCapacity, s.MaxBatteryCapacity)
	set(&p.MaxChargingRate, s.MaxChargingRate)
	set(&p.StorageEfficiency, s.StorageEfficiency)
	set(&p.MaxSellToGrid, s.MaxSellToGrid)
	set(&p.MaxBuyFromGrid, s.MaxBuyFromGrid)
	return p
}

type siteFileWrapper struct {
	Site SiteConfig `yaml:"site"`
}

func LoadSiteFile(path string) (SiteConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, err
	}
	var w siteFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return SiteConfig{}, fmt.Errorf("failed to parse site file %s: %w", path, err)
	}
	return w.Site, nil
}

// MergeSite overlays the fields set in override onto base.
// This is used when loading a site file and then applying overrides from the config or request.
func MergeSite(base, override SiteConfig) SiteConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	pick := func(dst **float64, v *float64) {
		if v != nil {
			*dst = v
		}
	}
	pick(&out.MaxBatteryCapacity, override.MaxBatteryCapacity)
	pick(&out.MaxChargingRate, override.MaxChargingRate)
	pick(&out.StorageEfficiency, override.StorageEfficiency)
	pick(&out.MaxSellToGrid, override.MaxSellToGrid)
	pick(&out.MaxBuyFromGrid, override.MaxBuyFromGrid)
	return out
}

// SiteEntry is a site preset found in a directory.
type SiteEntry struct {
	ID   string
	File string
	Site SiteConfig
}

// ListSites loads every *.yaml site file in dir, sorted by ID. Files that
// fail to parse are reported in skipped rather than failing the listing.
func ListSites(dir string) (sites []SiteEntry, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	skipped = map[string]error{}
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		site, err := LoadSiteFile(path)
		if err != nil {
			skipped[e.Name()] = err
			continue
		}
		id := strings.TrimSuffix(strings.TrimSuffix(e.Name(), ".yaml"), ".yml")
		if site.Name == "" {
			site.Name = id
		}
		sites = append(sites, SiteEntry{ID: id, File: path, Site: site})
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].ID < sites[j].ID })
	return sites, skipped, nil
}

// Float returns a pointer to v, for building SiteConfig literals.
func Float(v float64) *float64 { return &v }
