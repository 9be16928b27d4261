package config

import "errors"

// ErrConfigNotFound indicates the named configuration file was not found.
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrInvalidYAML indicates YAML parsing failed.
var ErrInvalidYAML = errors.New("invalid YAML syntax")
