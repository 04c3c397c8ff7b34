package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"econstats/internal/enrich"
	"econstats/internal/grouping"
)

// YAMLConfig represents the structure of the config.yaml file.
// Tunables that are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Grouping       grouping.Options        `yaml:"grouping"`
	FuzzyThreshold float64                 `yaml:"fuzzy_threshold,omitempty"`
	PlanFiles      []string                `yaml:"plan_files,omitempty"`
	FedProjections *enrich.ProjectionTable `yaml:"fed_projections,omitempty"`
	CAPE           *enrich.Reading         `yaml:"cape,omitempty"`
}

// LoadYAMLConfig loads the YAML configuration file at path.
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.FuzzyThreshold < 0 || cfg.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("fuzzy_threshold must be within [0, 1], got %v", cfg.FuzzyThreshold)
	}
	if cfg.FedProjections != nil && len(cfg.FedProjections.Projections) == 0 {
		return nil, fmt.Errorf("fed_projections has no projections")
	}

	return &cfg, nil
}

// GroupingOptions returns the auto-grouping tunables. Unset fields are
// defaulted by grouping.New.
func (c *YAMLConfig) GroupingOptions() grouping.Options {
	if c == nil {
		return grouping.DefaultOptions()
	}
	return c.Grouping
}

// Projections returns the configured policy-rate projection table, or the
// built-in one.
func (c *YAMLConfig) Projections() (enrich.ProjectionTable, error) {
	if c == nil || c.FedProjections == nil {
		return enrich.DefaultProjections()
	}
	return *c.FedProjections, nil
}

// CAPEReading returns the configured valuation reading. A zero reading
// makes the valuation enricher fail softly.
func (c *YAMLConfig) CAPEReading() enrich.Reading {
	if c == nil || c.CAPE == nil {
		return enrich.Reading{}
	}
	return *c.CAPE
}

// PlanFuzzyThreshold returns the fuzzy stage threshold, or 0 for the default.
func (c *YAMLConfig) PlanFuzzyThreshold() float64 {
	if c == nil {
		return 0
	}
	return c.FuzzyThreshold
}
