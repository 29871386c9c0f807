// Package quantile partitions records by key fields and summarises a numeric
// field per partition at requested probability levels.
package quantile

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/transformdiag/internal/domain/record"
)

// Result is the quantile summary of one group.
type Result struct {
	Key    record.GroupKey
	Levels []float64
	Values []float64
	// Count is the number of values the quantiles were computed over.
	Count int
}

// Value returns the quantile computed for level.
func (r Result) Value(level float64) (float64, bool) {
	for i, l := range r.Levels {
		if l == level {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Record flattens the result into the group fields plus one q<level> field
// per requested level.
func (r Result) Record() record.Record {
	out := r.Key.Record()
	for i, l := range r.Levels {
		out[Label(l)] = record.Number(r.Values[i])
	}
	return out
}

// Label names the output field of a level: 0.5 -> "q0.5".
func Label(level float64) string {
	return "q" + record.FormatFloat(level)
}

// Records flattens a result sequence, keeping its order.
func Records(results []Result) []record.Record {
	out := make([]record.Record, len(results))
	for i, r := range results {
		out[i] = r.Record()
	}
	return out
}

// Levels returns the lower, median and upper levels of a central band
// holding prob of the mass: [(1-prob)/2, 0.5, 1-(1-prob)/2].
func Levels(prob float64) []float64 {
	alpha := (1 - prob) / 2
	return []float64{alpha, 0.5, 1 - alpha}
}

// Quantile returns the p-quantile of an ascending slice using linear
// interpolation between order statistics (Hyndman-Fan type 7).
func Quantile(sorted []float64, p float64) (float64, error) {
	if err := checkLevel(p); err != nil {
		return 0, err
	}
	n := len(sorted)
	if n == 0 {
		return 0, &record.EmptyGroupError{}
	}
	var q float64
	switch h := p * float64(n-1); {
	case n == 1 || p <= 0:
		q = sorted[0]
	case p >= 1 || int(h)+1 >= n:
		q = sorted[n-1]
	default:
		lo := math.Floor(h)
		i := int(lo)
		q = lerp(sorted[i], sorted[i+1], h-lo)
	}
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return 0, fmt.Errorf("%w: level %v gives %v", ErrNonFinite, p, q)
	}
	return q, nil
}

// lerp interpolates between a and b without overflowing when b-a exceeds
// the float64 range.
func lerp(a, b, t float64) float64 {
	if t == 0 {
		return a
	}
	if d := b - a; !math.IsInf(d, 0) {
		return a + t*d
	}
	return (1-t)*a + t*b
}

// GroupQuantiles partitions records by groupFields and computes the levels
// of targetField within each partition. Groups come back in first-seen
// order. Every target value must parse to a finite number; callers drop
// empty cells beforehand (record.DropEmpty).
func GroupQuantiles(records []record.Record, targetField string, groupFields []string, levels []float64) ([]Result, error) {
	if len(groupFields) == 0 {
		return nil, ErrNoGroupFields
	}
	for _, l := range levels {
		if err := checkLevel(l); err != nil {
			return nil, err
		}
	}

	groups, err := record.GroupBy(records, groupFields)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(groups))
	for _, g := range groups {
		values := make([]float64, 0, len(g.Members))
		for _, m := range g.Members {
			v, err := m.Float(targetField)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", g.Key, err)
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return nil, &record.EmptyGroupError{Key: g.Key, Field: targetField}
		}
		slices.Sort(values)

		res := Result{
			Key:    g.Key,
			Levels: append([]float64(nil), levels...),
			Values: make([]float64, len(levels)),
			Count:  len(values),
		}
		for i, l := range levels {
			q, err := Quantile(values, l)
			if err != nil {
				return nil, fmt.Errorf("group %s field %q: %w", g.Key, targetField, err)
			}
			res.Values[i] = q
		}
		results = append(results, res)
	}
	return results, nil
}

func checkLevel(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, p)
	}
	return nil
}
