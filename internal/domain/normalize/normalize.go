// Package normalize expresses a metric as a ratio to the best value seen
// within its (target, target_config, chain) comparison group.
package normalize

import (
	"fmt"
	"math"

	"github.com/okian/transformdiag/internal/domain/record"
)

// Field names forming the comparison group.
const (
	FieldTarget       = "target"
	FieldTargetConfig = "target_config"
	FieldChain        = "chain"
)

// Suffix is appended to the metric name to form the derived field.
const Suffix = "_normalized"

// KeyFields returns the grouping fields, in order.
func KeyFields() []string {
	return []string{FieldTarget, FieldTargetConfig, FieldChain}
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithPolarity replaces the polarity table.
func WithPolarity(p Polarity) Option {
	return func(n *Normalizer) {
		if p.dirs != nil {
			n.polarity = p
		}
	}
}

// WithOutputField fixes the name of the derived field instead of
// <metric>_normalized.
func WithOutputField(name string) Option {
	return func(n *Normalizer) {
		n.outputField = name
	}
}

// Normalizer attaches best-value ratios to records. It holds no state
// between calls.
type Normalizer struct {
	polarity    Polarity
	outputField string
}

// New creates a Normalizer using the default polarity table.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{polarity: DefaultPolarity()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Polarity returns the table in use.
func (n *Normalizer) Polarity() Polarity { return n.polarity }

// OutputField returns the derived field name for metric.
func (n *Normalizer) OutputField(metric string) string {
	if n.outputField != "" {
		return n.outputField
	}
	return metric + Suffix
}

// NormalizeByBest returns a copy of every record, in input order, with the
// derived field set to value / best, where best is the minimum or maximum
// (per the polarity table) of metric within the record's group.
func (n *Normalizer) NormalizeByBest(records []record.Record, metric string) ([]record.Record, error) {
	dir := n.polarity.Direction(metric)
	fields := KeyFields()

	type group struct {
		key  record.GroupKey
		best float64
		seen bool
	}
	groups := make(map[string]*group)
	var order []*group
	ids := make([]string, len(records))
	values := make([]float64, len(records))

	for i, r := range records {
		key, err := record.KeyOf(r, fields)
		if err != nil {
			return nil, err
		}
		v, err := r.Float(metric)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", key, err)
		}
		ids[i] = key.ID()
		values[i] = v

		g, ok := groups[key.ID()]
		if !ok {
			g = &group{key: key}
			groups[key.ID()] = g
			order = append(order, g)
		}
		if !g.seen || dir.better(v, g.best) {
			g.best = v
			g.seen = true
		}
	}

	for _, g := range order {
		if !g.seen {
			return nil, &record.ZeroOrMissingBestValueError{Key: g.key, Metric: metric, Missing: true}
		}
		if g.best == 0 {
			return nil, &record.ZeroOrMissingBestValueError{Key: g.key, Metric: metric}
		}
	}

	out := make([]record.Record, len(records))
	field := n.OutputField(metric)
	for i, r := range records {
		g := groups[ids[i]]
		ratio := values[i] / g.best
		if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
			return nil, &record.ZeroOrMissingBestValueError{Key: g.key, Metric: metric, Best: g.best}
		}
		out[i] = r.With(field, record.Number(ratio))
	}
	return out, nil
}

// NormalizeByBest normalizes with the default polarity table.
func NormalizeByBest(records []record.Record, metric string) ([]record.Record, error) {
	return New().NormalizeByBest(records, metric)
}
