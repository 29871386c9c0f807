// Package chart assembles renderer-ready figure specifications from
// diagnostics records: a per-configuration summary grid and a quantile
// band chart.
package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/okian/transformdiag/internal/domain/normalize"
	"github.com/okian/transformdiag/internal/domain/quantile"
	"github.com/okian/transformdiag/internal/domain/record"
)

// Record fields the assembler reads.
const (
	FieldTarget       = "target"
	FieldTargetConfig = "target_config"
	FieldTransform    = "transform"
	FieldLogScale     = "log_scale"
	FieldEstimate     = "estimate"
)

// Options selects and shapes one figure.
type Options struct {
	// Column is the metric to plot.
	Column string
	// Columns is the summary grid column count.
	Columns int
	// Prob is the central mass covered by the band chart, in (0, 1].
	Prob float64
	// Target, LogScale and Estimate select the rows handed to the
	// assembler; the caller applies them when reading the dataset.
	Target   string
	LogScale string
	Estimate string
	// Normalized plots the best-value ratio of Column instead of Column.
	Normalized bool
}

// AssemblerOption applies a configuration option to the Assembler.
type AssemblerOption func(*Assembler)

// WithNormalizer sets the normalizer used for normalized figures.
func WithNormalizer(n *normalize.Normalizer) AssemblerOption {
	return func(a *Assembler) {
		if n != nil {
			a.normalizer = n
		}
	}
}

// Assembler builds figures. It is safe for concurrent use.
type Assembler struct {
	cfg        Config
	palette    *Palette
	normalizer *normalize.Normalizer
}

// NewAssembler creates an Assembler from cfg.
func NewAssembler(cfg Config, opts ...AssemblerOption) *Assembler {
	cfg = cfg.withDefaults()
	a := &Assembler{
		cfg:        cfg,
		palette:    NewPalette(cfg.TransformOrder, cfg.Colors),
		normalizer: normalize.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the assembler configuration.
func (a *Assembler) Config() Config { return a.cfg }

// Palette returns the transform colour scale.
func (a *Assembler) Palette() *Palette { return a.palette }

// prepare drops rows with an empty column and, if asked, swaps the column
// for its normalized counterpart. It returns the rows and the field to plot.
func (a *Assembler) prepare(records []record.Record, opts Options) ([]record.Record, string, error) {
	if opts.Column == "" {
		return nil, "", fmt.Errorf("%w: column is required", ErrInvalidOptions)
	}
	rows, err := record.DropEmpty(records, opts.Column)
	if err != nil {
		return nil, "", err
	}
	if !opts.Normalized {
		return rows, opts.Column, nil
	}
	rows, err = a.normalizer.NormalizeByBest(rows, opts.Column)
	if err != nil {
		return nil, "", err
	}
	return rows, a.normalizer.OutputField(opts.Column), nil
}

// Summary builds the grid of per-(target, target_config) subplots with one
// box (or scatter) trace per transform.
func (a *Assembler) Summary(records []record.Record, opts Options) (Figure, error) {
	if opts.Columns < 1 {
		return Figure{}, fmt.Errorf("%w: columns must be at least 1, got %d", ErrInvalidOptions, opts.Columns)
	}
	rows, field, err := a.prepare(records, opts)
	if err != nil {
		return Figure{}, err
	}

	configs, err := record.GroupBy(rows, []string{FieldTarget, FieldTargetConfig})
	if err != nil {
		return Figure{}, err
	}
	numRows := int(math.Ceil(float64(len(configs)) / float64(opts.Columns)))

	fig := Figure{
		Data: []Trace{},
		Layout: Layout{
			Title:      field + " vs transform",
			Grid:       &Grid{Rows: numRows, Columns: opts.Columns, Pattern: "independent", RowOrder: "top to bottom"},
			ShowLegend: false,
			Height:     numRows * a.cfg.SubplotHeight,
			Margin:     Margin{L: 80, R: 20, B: 60, T: 50},
			Shapes:     []Shape{},
			Axes:       make(map[string]Axis, 2*len(configs)),
		},
	}

	traceType := a.cfg.TraceType(opts.Column)
	axisType := a.cfg.AxisType(opts.Column)
	threshold, hasThreshold := a.cfg.Thresholds[opts.Column]
	hasThreshold = hasThreshold && !opts.Normalized

	for i, cfg := range configs {
		n := strconv.Itoa(i + 1)
		row := i/opts.Columns + 1
		byTransform, err := record.GroupBy(cfg.Members, []string{FieldTransform})
		if err != nil {
			return Figure{}, err
		}
		members := make(map[string][]record.Record, len(byTransform))
		for _, g := range byTransform {
			v, _ := g.Key.Value(FieldTransform)
			members[v.String()] = g.Members
		}

		for _, transform := range a.cfg.TransformOrder {
			ms := members[transform]
			t := Trace{
				X:           make([]any, 0, len(ms)),
				Y:           make([]any, 0, len(ms)),
				Type:        traceType,
				Mode:        "markers",
				Name:        transform,
				LegendGroup: transform,
				Marker:      &Marker{Color: a.palette.Color(transform)},
				XAxis:       "x" + n,
				YAxis:       "y" + n,
			}
			for _, m := range ms {
				v, err := m.Float(field)
				if err != nil {
					return Figure{}, fmt.Errorf("subplot %s: %w", cfg.Key, err)
				}
				t.X = append(t.X, transform)
				t.Y = append(t.Y, v)
			}
			fig.Data = append(fig.Data, t)
		}

		lastRow := row == numRows
		fig.Layout.Axes["xaxis"+n] = Axis{
			Title:          FieldTransform,
			ShowTickLabels: boolPtr(lastRow),
			Visible:        boolPtr(lastRow),
			AutoMargin:     true,
			TickAngle:      defaultTickAngle,
		}
		fig.Layout.Axes["yaxis"+n] = Axis{
			Title:       field,
			Type:        axisType,
			AutoMargin:  true,
			TickPadding: defaultTickPadding,
		}
		fig.Layout.Annotations = append(fig.Layout.Annotations, Annotation{
			Text:    "<b>" + subplotTitle(cfg.Key) + "</b>",
			X:       0.5,
			Y:       1,
			XRef:    "x" + n + " domain",
			YRef:    "y" + n + " domain",
			XAnchor: "center",
			YAnchor: "bottom",
		})
		if hasThreshold {
			fig.Layout.Shapes = append(fig.Layout.Shapes, Shape{
				Type: "line",
				X0:   0,
				X1:   1,
				Y0:   threshold,
				Y1:   threshold,
				XRef: "x" + n + " domain",
				YRef: "y" + n,
				Line: Line{Dash: "dot", Color: "black"},
			})
		}
	}

	fig.Legend = a.legend()
	return fig, nil
}

// Bands builds one median line and one shaded quantile band per transform,
// with target_config on the x axis.
func (a *Assembler) Bands(records []record.Record, opts Options) (Figure, error) {
	if math.IsNaN(opts.Prob) || opts.Prob <= 0 || opts.Prob > 1 {
		return Figure{}, fmt.Errorf("%w: prob must be within (0, 1], got %v", ErrInvalidOptions, opts.Prob)
	}
	rows, field, err := a.prepare(records, opts)
	if err != nil {
		return Figure{}, err
	}

	levels := quantile.Levels(opts.Prob)
	results, err := quantile.GroupQuantiles(rows, field, []string{FieldTarget, FieldTargetConfig, FieldTransform}, levels)
	if err != nil {
		return Figure{}, err
	}

	fig := Figure{
		Data: make([]Trace, 0, 2*len(a.cfg.TransformOrder)),
		Layout: Layout{
			Title:      field + " vs target_config",
			ShowLegend: true,
			Height:     a.cfg.BandHeight,
			Margin:     Margin{L: 80, R: 20, B: 60, T: 50},
			Shapes:     []Shape{},
			Axes: map[string]Axis{
				"xaxis": {Title: FieldTargetConfig, AutoMargin: true, TickAngle: defaultTickAngle},
				"yaxis": {Title: field, Type: a.cfg.AxisType(opts.Column), AutoMargin: true, TickPadding: defaultTickPadding},
			},
		},
	}

	for _, transform := range a.cfg.TransformOrder {
		var xs []any
		var lower, median, upper []any
		for _, r := range results {
			v, _ := r.Key.Value(FieldTransform)
			if v.String() != transform {
				continue
			}
			cfg, _ := r.Key.Value(FieldTargetConfig)
			xs = append(xs, cfg.String())
			lower = append(lower, r.Values[0])
			median = append(median, r.Values[1])
			upper = append(upper, r.Values[2])
		}
		color := a.palette.Color(transform)

		fig.Data = append(fig.Data, Trace{
			X:           orEmpty(xs),
			Y:           orEmpty(median),
			Type:        "scatter",
			Mode:        "lines",
			Name:        transform,
			LegendGroup: transform,
			Line:        &Line{Color: color},
		})
		fig.Data = append(fig.Data, Trace{
			X:           append(orEmpty(xs), reversed(xs)...),
			Y:           append(orEmpty(lower), reversed(upper)...),
			Mode:        "none",
			Fill:        "toself",
			FillColor:   color,
			LegendGroup: transform,
			Line:        &Line{Width: intPtr(0)},
			Opacity:     defaultBandOpacity,
			ShowLegend:  boolPtr(false),
		})
	}

	fig.Legend = a.legend()
	return fig, nil
}

func (a *Assembler) legend() []LegendEntry {
	out := make([]LegendEntry, len(a.cfg.TransformOrder))
	for i, t := range a.cfg.TransformOrder {
		out[i] = LegendEntry{Name: t, Color: a.palette.Color(t)}
	}
	return out
}

func subplotTitle(k record.GroupKey) string {
	t, _ := k.Value(FieldTarget)
	c, _ := k.Value(FieldTargetConfig)
	return t.String() + " " + c.String()
}

func orEmpty(xs []any) []any {
	out := make([]any, len(xs), len(xs)*2)
	copy(out, xs)
	return out
}

func reversed(xs []any) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[len(xs)-1-i] = x
	}
	return out
}
