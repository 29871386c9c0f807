package chart

import "encoding/json"

// Visibility values understood by the renderer.
const (
	LegendOnly = "legendonly"
)

// Figure is a renderer-ready chart specification.
type Figure struct {
	Data   []Trace       `json:"data"`
	Layout Layout        `json:"layout"`
	Legend []LegendEntry `json:"legend,omitempty"`
}

// Trace is one data series.
type Trace struct {
	X           []any   `json:"x"`
	Y           []any   `json:"y"`
	Type        string  `json:"type,omitempty"`
	Mode        string  `json:"mode,omitempty"`
	Name        string  `json:"name,omitempty"`
	LegendGroup string  `json:"legendgroup,omitempty"`
	Marker      *Marker `json:"marker,omitempty"`
	Line        *Line   `json:"line,omitempty"`
	XAxis       string  `json:"xaxis,omitempty"`
	YAxis       string  `json:"yaxis,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	FillColor   string  `json:"fillcolor,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	ShowLegend  *bool   `json:"showlegend,omitempty"`
	// Visible is true, false or LegendOnly; nil leaves the renderer default.
	Visible any `json:"visible,omitempty"`
}

// Marker styles trace markers.
type Marker struct {
	Color string `json:"color,omitempty"`
}

// Line styles trace lines and shapes.
type Line struct {
	Color string `json:"color,omitempty"`
	Dash  string `json:"dash,omitempty"`
	Width *int   `json:"width,omitempty"`
}

// LegendEntry is an item of the external legend the page draws.
type LegendEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Layout holds figure-level settings. Axes are keyed by their layout name
// ("xaxis1", "yaxis") and flattened into the layout object on encoding.
type Layout struct {
	Title       string          `json:"title,omitempty"`
	Grid        *Grid           `json:"grid,omitempty"`
	ShowLegend  bool            `json:"showlegend"`
	Height      int             `json:"height,omitempty"`
	Margin      Margin          `json:"margin"`
	Shapes      []Shape         `json:"shapes"`
	Annotations []Annotation    `json:"annotations,omitempty"`
	Axes        map[string]Axis `json:"-"`
}

// MarshalJSON flattens Axes next to the regular layout keys.
func (l Layout) MarshalJSON() ([]byte, error) {
	type plain Layout
	base, err := json.Marshal(plain(l))
	if err != nil {
		return nil, err
	}
	if len(l.Axes) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for name, axis := range l.Axes {
		merged[name] = axis
	}
	return json.Marshal(merged)
}

// UnmarshalJSON restores Axes from any "xaxis*"/"yaxis*" keys.
func (l *Layout) UnmarshalJSON(b []byte) error {
	type plain Layout
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for name, msg := range raw {
		if !isAxisKey(name) {
			continue
		}
		var a Axis
		if err := json.Unmarshal(msg, &a); err != nil {
			return err
		}
		if p.Axes == nil {
			p.Axes = make(map[string]Axis)
		}
		p.Axes[name] = a
	}
	*l = Layout(p)
	return nil
}

func isAxisKey(name string) bool {
	return len(name) >= 5 && (name[:5] == "xaxis" || name[:5] == "yaxis")
}

// Grid arranges subplots.
type Grid struct {
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
	Pattern  string `json:"pattern"`
	RowOrder string `json:"roworder"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
	T int `json:"t"`
}

// Axis configures one axis.
type Axis struct {
	Title          string `json:"title,omitempty"`
	Type           string `json:"type,omitempty"`
	ShowTickLabels *bool  `json:"showticklabels,omitempty"`
	Visible        *bool  `json:"visible,omitempty"`
	AutoMargin     bool   `json:"automargin"`
	TickAngle      int    `json:"tickangle,omitempty"`
	TickPadding    int    `json:"tickpadding,omitempty"`
}

// Shape is a layout shape; only lines are produced.
type Shape struct {
	Type string  `json:"type"`
	X0   float64 `json:"x0"`
	X1   float64 `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	Line Line    `json:"line"`
}

// Annotation is a text label positioned in axis coordinates.
type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	ShowArrow bool    `json:"showarrow"`
	XAnchor   string  `json:"xanchor"`
	YAnchor   string  `json:"yanchor"`
}

// ToggleLegend flips the visibility of every trace named name (or grouped
// under it) between visible and LegendOnly. It returns the affected trace
// indices and whether they are now hidden. Unknown names change nothing.
func (f *Figure) ToggleLegend(name string) ([]int, bool) {
	var idx []int
	for i, t := range f.Data {
		if t.Name == name || t.LegendGroup == name {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, false
	}
	hide := f.Data[idx[0]].Visible != LegendOnly
	for _, i := range idx {
		if hide {
			f.Data[i].Visible = LegendOnly
		} else {
			f.Data[i].Visible = true
		}
	}
	return idx, hide
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
