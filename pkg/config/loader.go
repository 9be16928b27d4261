package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, and validates configuration. It is the
// primary entry point, mirroring tarsy's pkg/config.Initialize: load the
// user YAML (if present), merge it over the built-in defaults with mergo,
// validate, and return.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	cfg := Builtin()
	cfg.configDir = configDir

	if configDir != "" {
		user, err := load(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		if user != nil {
			if err := mergo.Merge(cfg, user, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
				return nil, fmt.Errorf("failed to merge configuration: %w", err)
			}
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"retention_default_days", cfg.Retention.DefaultDays,
		"digital_signatures", cfg.Security.DigitalSignatures,
		"distribution_enabled", cfg.Distribution.Enabled)
	return cfg, nil
}

// load reads trustmesh.yaml from configDir, expanding environment
// variables before parsing, exactly as tarsy's loader.go does for
// tarsy.yaml. The file is decoded on top of a fresh copy of the built-in
// defaults, so options the file leaves out keep their defaults and options
// it sets explicitly (including false or zero) win. A missing file is not
// an error — Initialize falls back to built-in defaults.
func load(configDir string) (*Config, error) {
	path := configDir + "/trustmesh.yaml"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	data = ExpandEnv(data)

	cfg := Builtin()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return cfg, nil
}
