// Package config handles voxkit configuration loading and management.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds all voxkit settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Assets  AssetsConfig  `yaml:"assets"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds .vox import settings.
type ImportConfig struct {
	OptimizeMesh          bool    `yaml:"optimize_mesh"`           // Greedy quad merging
	GeneratePaletteAlways bool    `yaml:"generate_palette_always"` // Emit palette image even with an override
	PaletteOverride       string  `yaml:"palette_override"`        // Path to a .png/.tga/.bmp palette
	VoxelsPerUnit         float32 `yaml:"voxels_per_unit" validate:"gt=0"`
	ParallelMesh          bool    `yaml:"parallel_mesh"` // Mesh the six sweeps concurrently
}

// Scale returns the world size of one voxel.
func (c ImportConfig) Scale() float32 {
	return 1 / c.VoxelsPerUnit
}

// AssetsConfig holds asset lookup settings.
type AssetsConfig struct {
	SearchPaths []string `yaml:"search_paths" validate:"dive,required"` // Later paths take priority
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			OptimizeMesh:          true,
			GeneratePaletteAlways: false,
			PaletteOverride:       "",
			VoxelsPerUnit:         10,
			ParallelMesh:          false,
		},
		Assets: AssetsConfig{
			SearchPaths: nil,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
