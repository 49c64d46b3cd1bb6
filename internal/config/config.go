// Package config provides run configuration loading with embedded defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of a design run. CLI flags override file
// values, file values override the embedded defaults.
type Config struct {
	Walk  WalkConfig  `yaml:"walk"`
	CAI   CAIConfig   `yaml:"cai"`
	Fold  FoldConfig  `yaml:"fold"`
	Store StoreConfig `yaml:"store"`
}

type WalkConfig struct {
	Iterations         int     `yaml:"iterations"`
	Plateau            int     `yaml:"plateau"`
	Window             int     `yaml:"window"`
	TargetAcceptance   float64 `yaml:"target_acceptance"`
	InitialExploration float64 `yaml:"initial_exploration"`
	CoolFactor         float64 `yaml:"cool_factor"`
	HeatFactor         float64 `yaml:"heat_factor"`
	MinExploration     float64 `yaml:"min_exploration"`
	MaxExploration     float64 `yaml:"max_exploration"`
	AcceptancePolicy   string  `yaml:"acceptance_policy"`
	RateController     string  `yaml:"rate_controller"`
	Seed               int64   `yaml:"seed"`
	Walkers            int     `yaml:"walkers"`
	TimeBudgetSeconds  int     `yaml:"time_budget_seconds"`
}

type CAIConfig struct {
	Threshold float64 `yaml:"threshold"`
}

type FoldConfig struct {
	Mode string `yaml:"mode"`
}

type StoreConfig struct {
	Kind   string `yaml:"kind"`
	DBPath string `yaml:"db_path"`
}

// Default returns the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path yields the defaults untouched.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
