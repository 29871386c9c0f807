package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/transformdiag/internal/domain/quantile"
	"github.com/okian/transformdiag/internal/domain/record"
	"github.com/okian/transformdiag/pkg/logger"
	"github.com/okian/transformdiag/pkg/metrics"
)

// TransformDependencies runs the core operations over caller records.
type TransformDependencies interface {
	Quantiles(ctx context.Context, records []record.Record, targetField string, groupFields []string, levels []float64) ([]quantile.Result, error)
	Normalize(ctx context.Context, records []record.Record, metric, outputField string) ([]record.Record, error)
}

// quantilesRequest mirrors the OpenAPI schema for POST /api/quantiles.
type quantilesRequest struct {
	Records     []record.Record `json:"records"`
	TargetField string          `json:"target_field"`
	GroupFields []string        `json:"group_fields"`
	Levels      []float64       `json:"levels"`
}

// normalizeRequest mirrors the OpenAPI schema for POST /api/normalize.
type normalizeRequest struct {
	Records     []record.Record `json:"records"`
	MetricField string          `json:"metric_field"`
	OutputField string          `json:"output_field,omitempty"`
}

type recordsResponse struct {
	Records []record.Record `json:"records"`
}

// TransformHandler handles the record transformation endpoints.
type TransformHandler struct {
	deps         TransformDependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewTransformHandler creates a new transform handler.
func NewTransformHandler(deps TransformDependencies, maxBodyBytes int64, l logger.Logger) *TransformHandler {
	return &TransformHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleQuantiles handles POST /api/quantiles requests.
func (h *TransformHandler) HandleQuantiles(w http.ResponseWriter, r *http.Request) {
	const op = "api.quantiles"
	var req quantilesRequest
	if err := h.decode(w, r, SchemaQuantiles, &req); err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	results, err := h.deps.Quantiles(r.Context(), req.Records, req.TargetField, req.GroupFields, req.Levels)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: quantile.Records(results)})
}

// HandleNormalize handles POST /api/normalize requests.
func (h *TransformHandler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	const op = "api.normalize"
	var req normalizeRequest
	if err := h.decode(w, r, SchemaNormalize, &req); err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	out, err := h.deps.Normalize(r.Context(), req.Records, req.MetricField, req.OutputField)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: out})
}

// decode reads a bounded POST body, validates it against schema and
// unmarshals it into v.
func (h *TransformHandler) decode(w http.ResponseWriter, r *http.Request, schema string, v any) error {
	if r.Method != http.MethodPost {
		return ErrMethodNotAllowed
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return WrapKind("read body", ErrBadRequest, err)
	}
	if err := validateBody(schema, body); err != nil {
		metrics.RecordSchemaRejection(schema)
		h.logger.Debug(r.Context(), "request body rejected", logger.String("schema", schema), logger.Error(err))
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return WrapKind("decode body", ErrBadRequest, err)
	}
	return nil
}
