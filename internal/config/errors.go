package config

import "errors"

// Sentinel error kinds for configuration. Validation errors are collected
// into a multierror whose entries each wrap ErrInvalidConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
