package api

import (
	"context"
	"net/http"

	"github.com/okian/transformdiag/internal/domain/chart"
)

// ColumnsDependencies lists plottable columns and reloads the dataset.
type ColumnsDependencies interface {
	Columns(ctx context.Context) (chart.Catalog, error)
	Reload(ctx context.Context) error
}

// ColumnsHandler handles dataset catalog requests.
type ColumnsHandler struct {
	deps ColumnsDependencies
}

// NewColumnsHandler creates a new columns handler.
func NewColumnsHandler(deps ColumnsDependencies) *ColumnsHandler {
	return &ColumnsHandler{deps: deps}
}

// HandleColumns handles GET /api/columns requests.
func (h *ColumnsHandler) HandleColumns(w http.ResponseWriter, r *http.Request) {
	const op = "api.columns"
	if r.Method != http.MethodGet {
		writeErr(w, NewKind(op, ErrMethodNotAllowed))
		return
	}
	cat, err := h.deps.Columns(r.Context())
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// HandleReload handles POST /api/reload requests.
func (h *ColumnsHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	if r.Method != http.MethodPost {
		writeErr(w, NewKind(op, ErrMethodNotAllowed))
		return
	}
	if err := h.deps.Reload(r.Context()); err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
