package chart

import (
	"slices"
	"sync"
)

// Default layout constants.
const (
	defaultSubplotHeight = 300
	defaultBandHeight    = 600
	defaultBandOpacity   = 0.3
	defaultTickAngle     = 45
	defaultTickPadding   = 10
)

// Category10 is the ten-colour categorical scheme used for transforms.
var Category10 = []string{ //nolint:gochecknoglobals // fixed colour scheme
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// DefaultTransforms lists the compared transforms in display order.
func DefaultTransforms() []string {
	return []string{
		"ALR", "ILR", "ExpandedSoftmax", "NormalizedExponential",
		"StanStickbreaking", "StickbreakingLogistic", "StickbreakingNormal",
		"StickbreakingPowerLogistic", "StickbreakingPowerNormal",
		"StickbreakingAngular",
	}
}

// Config is the process-wide chart configuration. It is passed in
// explicitly; nothing here is a package-level default that callers mutate.
type Config struct {
	// TransformOrder fixes both trace order and colour assignment.
	TransformOrder []string
	// Colors is the palette range, cycled over TransformOrder.
	Colors []string
	// LinearAxisMetrics are plotted on a linear y axis; all others use log.
	LinearAxisMetrics []string
	// ScatterMetrics are drawn as marker scatters instead of box plots.
	ScatterMetrics []string
	// Thresholds draws a dotted reference line at the given value.
	Thresholds map[string]float64
	// SubplotHeight is the pixel height of one summary grid row.
	SubplotHeight int
	// BandHeight is the pixel height of the band chart.
	BandHeight int
}

// DefaultConfig returns the configuration of the diagnostics page.
func DefaultConfig() Config {
	return Config{
		TransformOrder:    DefaultTransforms(),
		Colors:            slices.Clone(Category10),
		LinearAxisMetrics: []string{"n_divergent", "bfmi"},
		ScatterMetrics:    []string{"min_rel_ess_bulk", "max_rhat"},
		Thresholds:        map[string]float64{"bfmi": 0.3, "max_rhat": 1.01},
		SubplotHeight:     defaultSubplotHeight,
		BandHeight:        defaultBandHeight,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.TransformOrder) == 0 {
		c.TransformOrder = d.TransformOrder
	}
	if len(c.Colors) == 0 {
		c.Colors = d.Colors
	}
	if c.SubplotHeight <= 0 {
		c.SubplotHeight = d.SubplotHeight
	}
	if c.BandHeight <= 0 {
		c.BandHeight = d.BandHeight
	}
	return c
}

// AxisType returns "linear" or "log" for metric.
func (c Config) AxisType(metric string) string {
	if slices.Contains(c.LinearAxisMetrics, metric) {
		return "linear"
	}
	return "log"
}

// TraceType returns "scatter" or "box" for metric.
func (c Config) TraceType(metric string) string {
	if slices.Contains(c.ScatterMetrics, metric) {
		return "scatter"
	}
	return "box"
}

// Palette is an ordinal colour scale: the i-th domain entry gets the i-th
// colour, cycling. Names outside the domain are appended on first use.
type Palette struct {
	mu     sync.Mutex
	colors []string
	index  map[string]int
	domain []string
}

// NewPalette maps domain onto colors.
func NewPalette(domain, colors []string) *Palette {
	if len(colors) == 0 {
		colors = Category10
	}
	p := &Palette{
		colors: slices.Clone(colors),
		index:  make(map[string]int, len(domain)),
	}
	for _, name := range domain {
		p.add(name)
	}
	return p
}

func (p *Palette) add(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	i := len(p.domain)
	p.index[name] = i
	p.domain = append(p.domain, name)
	return i
}

// Color returns the colour of name.
func (p *Palette) Color(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.colors[p.add(name)%len(p.colors)]
}

// Breakpoints for ColumnsForWidth, in CSS pixels.
const (
	narrowWidth = 768
	mediumWidth = 1200
)

// ColumnsForWidth picks the summary grid column count for a viewport width.
func ColumnsForWidth(px int) int {
	switch {
	case px < narrowWidth:
		return 1
	case px < mediumWidth:
		return 2
	default:
		return 3
	}
}
