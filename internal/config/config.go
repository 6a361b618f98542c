// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package config loads the run configuration of the s2voronoi command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/remapcore/s2voronoi/s2delaunay"
	"gopkg.in/yaml.v3"
)

// Grid sources.
const (
	SourceRegular   = "regular"
	SourceRandom    = "random"
	SourceFibonacci = "fibonacci"
	SourceCSV       = "csv"
)

// Config is the top-level run configuration.
type Config struct {
	Grid          GridConfig          `yaml:"grid" toml:"grid"`
	Triangulation TriangulationConfig `yaml:"triangulation" toml:"triangulation"`
	Output        OutputConfig        `yaml:"output" toml:"output"`
}

// GridConfig selects where the cell centers come from.
type GridConfig struct {
	Source string `yaml:"source" toml:"source"`
	// Global grids cover the sphere; otherwise Boundary bounds the grid.
	Global   bool           `yaml:"global" toml:"global"`
	Boundary BoundaryConfig `yaml:"boundary" toml:"boundary"`

	// regular
	NLon int `yaml:"nlon" toml:"nlon"`
	NLat int `yaml:"nlat" toml:"nlat"`
	// random, fibonacci
	Count int   `yaml:"count" toml:"count"`
	Seed  int64 `yaml:"seed" toml:"seed"`
	// csv: lon,lat[,redundant] rows
	Path string `yaml:"path" toml:"path"`
}

// BoundaryConfig is a lon/lat rectangle in degrees.
type BoundaryConfig struct {
	MinLon float64 `yaml:"min_lon" toml:"min_lon"`
	MaxLon float64 `yaml:"max_lon" toml:"max_lon"`
	MinLat float64 `yaml:"min_lat" toml:"min_lat"`
	MaxLat float64 `yaml:"max_lat" toml:"max_lat"`
}

// TriangulationConfig tunes the numerical tolerances. Zero values keep the
// library defaults.
type TriangulationConfig struct {
	Eps              float64 `yaml:"eps" toml:"eps"`
	MergeTolerance   float64 `yaml:"merge_tolerance" toml:"merge_tolerance"`
	MaxLegalizeCount int     `yaml:"max_legalize_count" toml:"max_legalize_count"`
}

// OutputConfig says where results go. An empty Path writes to stdout.
type OutputConfig struct {
	Path      string  `yaml:"path" toml:"path"`
	SVG       string  `yaml:"svg" toml:"svg"`
	Width     int     `yaml:"width" toml:"width"`
	Height    int     `yaml:"height" toml:"height"`
	Triangles bool    `yaml:"triangles" toml:"triangles"`
	Fill      float64 `yaml:"fill" toml:"fill"`
}

// Load reads a configuration file. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("config file %s: unsupported extension %q", path, ext)
	}

	cfg.Grid.Path = os.ExpandEnv(cfg.Grid.Path)
	cfg.Output.Path = os.ExpandEnv(cfg.Output.Path)
	cfg.Output.SVG = os.ExpandEnv(cfg.Output.SVG)
	// Relative data paths are taken from the config file's directory.
	if cfg.Grid.Path != "" && !filepath.IsAbs(cfg.Grid.Path) {
		cfg.Grid.Path = filepath.Join(filepath.Dir(path), cfg.Grid.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Source: SourceFibonacci,
			Global: true,
			Count:  1000,
		},
		Output: OutputConfig{
			Width:  1500,
			Height: 750,
			Fill:   -999,
		},
	}
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error
	g := c.Grid
	switch g.Source {
	case SourceRegular:
		if g.NLon <= 0 || g.NLat <= 0 {
			errs = append(errs, fmt.Errorf("grid: regular source needs positive nlon and nlat, got %d x %d", g.NLon, g.NLat))
		}
	case SourceRandom, SourceFibonacci:
		if g.Count < 4 {
			errs = append(errs, fmt.Errorf("grid: %s source needs count >= 4, got %d", g.Source, g.Count))
		}
		if !g.Global {
			errs = append(errs, fmt.Errorf("grid: %s source is global only", g.Source))
		}
	case SourceCSV:
		if g.Path == "" {
			errs = append(errs, errors.New("grid: csv source needs a path"))
		}
	default:
		errs = append(errs, fmt.Errorf("grid: unknown source %q", g.Source))
	}
	if !g.Global {
		if err := g.Boundary.Boundary().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("grid: %w", err))
		}
	}

	t := c.Triangulation
	if t.Eps < 0 || t.MergeTolerance < 0 || t.MaxLegalizeCount < 0 {
		errs = append(errs, fmt.Errorf("triangulation: negative tolerance or count in %+v", t))
	}
	if t.Eps > s2delaunay.MaxEps {
		errs = append(errs, fmt.Errorf("triangulation: eps %v exceeds %v", t.Eps, s2delaunay.MaxEps))
	}
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		errs = append(errs, fmt.Errorf("output: image size %d x %d must be positive", c.Output.Width, c.Output.Height))
	}
	return errors.Join(errs...)
}
