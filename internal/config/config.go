// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and environment variables on top.
// - Derived domain configuration is built by ChartConfig and Polarity.
package config

import (
	"context"
	"fmt"

	"github.com/okian/transformdiag/internal/domain/chart"
	"github.com/okian/transformdiag/internal/domain/normalize"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataPath is the diagnostics CSV served by the API. Empty starts the
	// server without a dataset; figure endpoints then answer 503.
	DataPath string `koanf:"data_path"`

	// DefaultColumns is the summary grid width when a request omits cols.
	DefaultColumns int `koanf:"default_columns"`

	// DefaultProb is the band probability when a request omits prob.
	DefaultProb float64 `koanf:"default_prob"`

	// TransformOrder fixes trace order and colour assignment.
	TransformOrder []string `koanf:"transform_order"`

	// Palette is the colour range mapped over TransformOrder.
	Palette []string `koanf:"palette"`

	// LinearAxisMetrics are plotted on a linear axis; others use log.
	LinearAxisMetrics []string `koanf:"linear_axis_metrics"`

	// ScatterMetrics are drawn as marker scatters instead of box plots.
	ScatterMetrics []string `koanf:"scatter_metrics"`

	// Thresholds maps metric names to a reference line value.
	Thresholds map[string]float64 `koanf:"thresholds"`

	// SubplotHeight and BandHeight size the figures in pixels.
	SubplotHeight int `koanf:"subplot_height"`
	BandHeight    int `koanf:"band_height"`

	// LowerIsBetter and HigherIsBetter extend the normalizer polarity table.
	LowerIsBetter  []string `koanf:"lower_is_better"`
	HigherIsBetter []string `koanf:"higher_is_better"`

	// MaxBodyBytes caps POST request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ShutdownTimeoutSec bounds graceful HTTP shutdown.
	ShutdownTimeoutSec int `koanf:"shutdown_timeout_sec"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	chartDefaults := chart.DefaultConfig()
	thresholds := make(map[string]float64, len(chartDefaults.Thresholds))
	for k, v := range chartDefaults.Thresholds {
		thresholds[k] = v
	}
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DefaultColumns:     2,
		DefaultProb:        0.9,
		TransformOrder:     chartDefaults.TransformOrder,
		Palette:            chartDefaults.Colors,
		LinearAxisMetrics:  chartDefaults.LinearAxisMetrics,
		ScatterMetrics:     chartDefaults.ScatterMetrics,
		Thresholds:         thresholds,
		SubplotHeight:      chartDefaults.SubplotHeight,
		BandHeight:         chartDefaults.BandHeight,
		MaxBodyBytes:       8 << 20,
		ShutdownTimeoutSec: 10,
	}
}

// ChartConfig returns the figure configuration described by c.
func (c *Config) ChartConfig() chart.Config {
	return chart.Config{
		TransformOrder:    c.TransformOrder,
		Colors:            c.Palette,
		LinearAxisMetrics: c.LinearAxisMetrics,
		ScatterMetrics:    c.ScatterMetrics,
		Thresholds:        c.Thresholds,
		SubplotHeight:     c.SubplotHeight,
		BandHeight:        c.BandHeight,
	}
}

// Polarity returns the default polarity table extended by the configured
// metric lists. A metric listed under both directions is an error.
func (c *Config) Polarity() (normalize.Polarity, error) {
	overrides := make(map[string]normalize.Direction, len(c.LowerIsBetter)+len(c.HigherIsBetter))
	for _, m := range c.LowerIsBetter {
		overrides[m] = normalize.LowerIsBetter
	}
	for _, m := range c.HigherIsBetter {
		if d, ok := overrides[m]; ok && d == normalize.LowerIsBetter {
			return normalize.Polarity{}, fmt.Errorf("%w: metric %q is both lower and higher is better", ErrInvalidConfig, m)
		}
		overrides[m] = normalize.HigherIsBetter
	}
	return normalize.NewPolarity(overrides), nil
}
