package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/transformdiag/internal/domain/chart"
	"github.com/okian/transformdiag/pkg/logger"
)

// FigureDependencies builds figures from the loaded dataset.
type FigureDependencies interface {
	Summary(ctx context.Context, opts chart.Options) (chart.Figure, error)
	Bands(ctx context.Context, opts chart.Options) (chart.Figure, error)
}

// FiguresHandler handles figure requests.
type FiguresHandler struct {
	deps   FigureDependencies
	logger logger.Logger
}

// NewFiguresHandler creates a new figures handler.
func NewFiguresHandler(deps FigureDependencies, l logger.Logger) *FiguresHandler {
	return &FiguresHandler{deps: deps, logger: l}
}

// HandleSummary handles GET /api/figures/summary.
//
// Query: column (required), cols or width, log_scale, estimate, normalized.
func (h *FiguresHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.figures_summary", h.deps.Summary)
}

// HandleBands handles GET /api/figures/bands.
//
// Query: column (required), prob, log_scale, estimate, normalized.
func (h *FiguresHandler) HandleBands(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.figures_bands", h.deps.Bands)
}

type figureFunc func(context.Context, chart.Options) (chart.Figure, error)

func (h *FiguresHandler) serve(w http.ResponseWriter, r *http.Request, op string, build figureFunc) {
	if r.Method != http.MethodGet {
		writeErr(w, NewKind(op, ErrMethodNotAllowed))
		return
	}
	opts, err := parseFigureOptions(r.URL.Query())
	if err != nil {
		writeErr(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	fig, err := build(r.Context(), opts)
	if err != nil {
		h.logger.Debug(r.Context(), "figure request failed", logger.String("op", op), logger.Error(err))
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

// parseFigureOptions reads chart options from the query string. Zero
// values for cols and prob defer to the service defaults.
func parseFigureOptions(q url.Values) (chart.Options, error) {
	opts := chart.Options{
		Column:   q.Get("column"),
		Target:   q.Get("target"),
		LogScale: q.Get("log_scale"),
		Estimate: q.Get("estimate"),
	}
	if opts.Column == "" {
		return opts, errMissingParam("column")
	}
	if v := q.Get("cols"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errBadParam("cols", v)
		}
		opts.Columns = n
	} else if v := q.Get("width"); v != "" {
		px, err := strconv.Atoi(v)
		if err != nil || px < 0 {
			return opts, errBadParam("width", v)
		}
		opts.Columns = chart.ColumnsForWidth(px)
	}
	if v := q.Get("prob"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p <= 0 || p > 1 {
			return opts, errBadParam("prob", v)
		}
		opts.Prob = p
	}
	if v := q.Get("normalized"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errBadParam("normalized", v)
		}
		opts.Normalized = b
	}
	return opts, nil
}
