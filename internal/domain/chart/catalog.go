package chart

// Catalog describes what a page can ask for: the plottable metric columns
// and the transform legend.
type Catalog struct {
	Columns    []string          `json:"columns"`
	Transforms []string          `json:"transforms"`
	Colors     map[string]string `json:"colors"`
	LogScales  []string          `json:"log_scales,omitempty"`
	Estimates  []string          `json:"estimates,omitempty"`
}

// Catalog fills the transform half of a Catalog for the given columns.
func (a *Assembler) Catalog(columns, logScales, estimates []string) Catalog {
	colors := make(map[string]string, len(a.cfg.TransformOrder))
	for _, t := range a.cfg.TransformOrder {
		colors[t] = a.palette.Color(t)
	}
	return Catalog{
		Columns:    columns,
		Transforms: append([]string(nil), a.cfg.TransformOrder...),
		Colors:     colors,
		LogScales:  logScales,
		Estimates:  estimates,
	}
}
