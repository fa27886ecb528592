// Package config handles tool configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/Faultbox/meshmerge/pkg/geom"
	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// Config holds all meshmerge settings.
type Config struct {
	Merge   MergeConfig   `yaml:"merge"`
	Refine  []RefineRule  `yaml:"refine"`
	Sources SourcesConfig `yaml:"sources"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// MergeConfig holds welding and placement settings.
type MergeConfig struct {
	Precision     int    `yaml:"precision"`      // decimals kept in the weld key
	RotationOrder string `yaml:"rotation_order"` // "xyz" extrinsic, "XYZ" intrinsic
	NormalMode    string `yaml:"normal_mode"`    // "rotate" or "inverse_transpose"
	Workers       int    `yaml:"workers"`        // concurrent source loads
}

// RefineRule subdivides sources whose base name matches a glob.
type RefineRule struct {
	Match  string `yaml:"match"`
	Passes int    `yaml:"passes"`
}

// SourcesConfig holds where relative source references are looked up.
type SourcesConfig struct {
	Roots []string `yaml:"roots"`
}

// OutputConfig holds the merged mesh destination.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Merge: MergeConfig{
			Precision:     geom.DefaultPrecision,
			RotationOrder: string(geom.DefaultRotationOrder),
			NormalMode:    string(mesh.NormalsRotate),
			Workers:       1,
		},
		Refine: []RefineRule{
			{Match: "*ground.obj", Passes: 2},
		},
		Sources: SourcesConfig{
			Roots: []string{"."},
		},
		Output: OutputConfig{
			Path: "merged.obj",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Merge.Precision < 0 || c.Merge.Precision > geom.MaxPrecision {
		return fmt.Errorf("merge.precision %d: %w", c.Merge.Precision, geom.ErrInvalidPrecision)
	}
	if _, err := geom.ParseRotationOrder(c.Merge.RotationOrder); err != nil {
		return fmt.Errorf("merge.rotation_order: %w", err)
	}
	if _, err := mesh.ParseNormalMode(c.Merge.NormalMode); err != nil {
		return fmt.Errorf("merge.normal_mode: %w", err)
	}
	for i, r := range c.Refine {
		if _, err := filepath.Match(r.Match, ""); err != nil {
			return fmt.Errorf("refine[%d].match %q: %w", i, r.Match, err)
		}
		if r.Passes < 0 {
			return fmt.Errorf("refine[%d].passes %d is negative", i, r.Passes)
		}
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is empty")
	}
	return nil
}

// RotationOrder returns the parsed merge.rotation_order.
func (c *Config) RotationOrder() geom.RotationOrder {
	order, err := geom.ParseRotationOrder(c.Merge.RotationOrder)
	if err != nil {
		return geom.DefaultRotationOrder
	}
	return order
}

// NormalMode returns the parsed merge.normal_mode.
func (c *Config) NormalMode() mesh.NormalMode {
	mode, err := mesh.ParseNormalMode(c.Merge.NormalMode)
	if err != nil {
		return mesh.NormalsRotate
	}
	return mode
}
