// Package config loads and saves study descriptions as YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 0.01
	DefaultHorizon   = 60.0
	DefaultReference = 1.0
	DefaultTolerance = 0.02
)

// Config mirrors the YAML layout of a study file. Zero actuator limits
// mean unconstrained.
type Config struct {
	Plant      PlantConfig  `yaml:"plant"`
	Method     string       `yaml:"method"`
	Controller string       `yaml:"controller"`
	Integrator string       `yaml:"integrator"`
	Reference  float64      `yaml:"reference"`
	Horizon    float64      `yaml:"horizon"`
	Dt         float64      `yaml:"dt"`
	Tolerance  float64      `yaml:"tolerance"`
	Limits     LimitsConfig `yaml:"limits"`
}

// PlantConfig holds transfer-function coefficients, highest power
// first, the way they are written on paper.
type PlantConfig struct {
	Num []float64 `yaml:"num"`
	Den []float64 `yaml:"den"`
}

type LimitsConfig struct {
	Enabled bool    `yaml:"enabled"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      PlantConfig{Num: []float64{1}, Den: []float64{20, 12, 1}},
		Method:     "zn",
		Controller: "pid",
		Integrator: "rk4",
		Reference:  DefaultReference,
		Horizon:    DefaultHorizon,
		Dt:         DefaultDt,
		Tolerance:  DefaultTolerance,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate catches the mistakes a hand-edited file is likely to carry.
// Deeper checks (properness, stability, step-size guard) belong to the
// packages that consume the values.
func (c *Config) Validate() error {
	if len(c.Plant.Den) == 0 {
		return fmt.Errorf("plant.den must not be empty")
	}
	if c.Reference == 0 {
		return fmt.Errorf("reference must be nonzero")
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %g", c.Horizon)
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in (0,1), got %g", c.Tolerance)
	}
	if c.Limits.Enabled && c.Limits.Min >= c.Limits.Max {
		return fmt.Errorf("limits.min (%g) must be below limits.max (%g)", c.Limits.Min, c.Limits.Max)
	}
	return nil
}
