package normalize

import (
	"fmt"
	"strings"
)

// Direction says which end of a metric's range is better.
type Direction int

// Directions.
const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower"
	}
	return "higher"
}

// ParseDirection accepts "lower"/"min" and "higher"/"max".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lower", "min", "lower_is_better":
		return LowerIsBetter, nil
	case "higher", "max", "higher_is_better":
		return HigherIsBetter, nil
	default:
		return HigherIsBetter, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

// better reports whether a beats b under d.
func (d Direction) better(a, b float64) bool {
	if d == LowerIsBetter {
		return a < b
	}
	return a > b
}

// defaultLowerIsBetter lists the diagnostics where smaller values are better.
var defaultLowerIsBetter = []string{"max_rhat", "max_abs_rel_error", "n_divergent", "rmsre"}

// Polarity maps metric names to their Direction. Metrics it does not list
// use the fallback direction (higher is better).
type Polarity struct {
	dirs     map[string]Direction
	fallback Direction
}

// DefaultPolarity returns the built-in table.
func DefaultPolarity() Polarity {
	p := Polarity{dirs: make(map[string]Direction, len(defaultLowerIsBetter)), fallback: HigherIsBetter}
	for _, m := range defaultLowerIsBetter {
		p.dirs[m] = LowerIsBetter
	}
	return p
}

// NewPolarity extends the default table with overrides.
func NewPolarity(overrides map[string]Direction) Polarity {
	p := DefaultPolarity()
	for m, d := range overrides {
		p.dirs[m] = d
	}
	return p
}

// With returns a copy of p where metric has direction d.
func (p Polarity) With(metric string, d Direction) Polarity {
	out := Polarity{dirs: make(map[string]Direction, len(p.dirs)+1), fallback: p.fallback}
	for k, v := range p.dirs {
		out.dirs[k] = v
	}
	out.dirs[metric] = d
	return out
}

// Direction returns the direction of metric.
func (p Polarity) Direction(metric string) Direction {
	if d, ok := p.dirs[metric]; ok {
		return d
	}
	return p.fallback
}
