package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix = "TDIAG_"
	EnvConfig = "TDIAG_CONFIG"
)

// listKeys are read from the environment as comma separated values.
var listKeys = map[string]bool{ //nolint:gochecknoglobals // fixed key set
	"transform_order":     true,
	"palette":             true,
	"linear_axis_metrics": true,
	"scatter_metrics":     true,
	"lower_is_better":     true,
	"higher_is_better":    true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TDIAG_CONFIG is set
//  3. env (prefix TDIAG_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TDIAG_DATA_PATH -> data_path. Keys stay flat so underscores match the
	// koanf tags; list keys are split on commas.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Addr == "" {
		result = multierror.Append(result, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat))
	}
	if c.DefaultColumns < 1 {
		result = multierror.Append(result, fmt.Errorf("%w: default_columns must be >= 1", ErrInvalidConfig))
	}
	if c.DefaultProb <= 0 || c.DefaultProb > 1 {
		result = multierror.Append(result, fmt.Errorf("%w: default_prob must be in (0, 1]", ErrInvalidConfig))
	}
	if len(c.TransformOrder) == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: transform_order must not be empty", ErrInvalidConfig))
	}
	if len(c.Palette) == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: palette must not be empty", ErrInvalidConfig))
	}
	if c.MaxBodyBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig))
	}
	if _, err := c.Polarity(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
