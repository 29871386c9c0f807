// Package synth generates synthetic transform diagnostics for demos and
// tests. Output is deterministic for a given Config.
package synth

import (
	"errors"
	"runtime"

	"github.com/okian/transformdiag/internal/domain/chart"
)

// ErrInvalidConfig is returned when a Config cannot produce any rows.
var ErrInvalidConfig = errors.New("invalid synth config")

// Config describes the grid of runs to generate. Every combination of
// target, target config, transform, chain, log scale and estimate yields
// one row.
type Config struct {
	Targets       []string
	TargetConfigs []string
	Transforms    []string
	LogScales     []string
	Estimates     []string
	Chains        int
	Seed          uint64
	Workers       int
}

// DefaultConfig returns a small grid over every default transform.
func DefaultConfig() Config {
	return Config{
		Targets:       []string{"dirichlet", "multi-logit-normal"},
		TargetConfigs: []string{"N3", "N10", "N100"},
		Transforms:    chart.DefaultTransforms(),
		LogScales:     []string{"true", "false"},
		Estimates:     []string{"mean", "variance"},
		Chains:        4,
		Seed:          1,
		Workers:       runtime.NumCPU(),
	}
}

// Rows returns the number of records the config produces.
func (c Config) Rows() int {
	return len(c.Targets) * len(c.TargetConfigs) * len(c.Transforms) *
		len(c.LogScales) * len(c.Estimates) * c.Chains
}

func (c Config) validate() error {
	switch {
	case len(c.Targets) == 0:
		return errors.Join(ErrInvalidConfig, errors.New("no targets"))
	case len(c.TargetConfigs) == 0:
		return errors.Join(ErrInvalidConfig, errors.New("no target configs"))
	case len(c.Transforms) == 0:
		return errors.Join(ErrInvalidConfig, errors.New("no transforms"))
	case len(c.LogScales) == 0 || len(c.Estimates) == 0:
		return errors.Join(ErrInvalidConfig, errors.New("no log scales or estimates"))
	case c.Chains < 1:
		return errors.Join(ErrInvalidConfig, errors.New("chains must be at least 1"))
	}
	return nil
}
