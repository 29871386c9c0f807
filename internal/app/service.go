// Package service provides the diagnostics service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/transformdiag/internal/adapters/dataset"
	"github.com/okian/transformdiag/internal/domain/chart"
	"github.com/okian/transformdiag/internal/domain/normalize"
	"github.com/okian/transformdiag/internal/domain/quantile"
	"github.com/okian/transformdiag/internal/domain/record"
	"github.com/okian/transformdiag/pkg/logger"
	"github.com/okian/transformdiag/pkg/metrics"
)

// Operation names used in logs and metrics.
const (
	OpSummary   = "summary"
	OpBands     = "bands"
	OpQuantiles = "quantiles"
	OpNormalize = "normalize"
)

// Service implements the API dependencies for the diagnostics page.
type Service struct {
	mu sync.RWMutex

	store      *dataset.MemoryStore
	assembler  *chart.Assembler
	normalizer *normalize.Normalizer

	// Configuration
	chartConfig    chart.Config
	polarity       normalize.Polarity
	dataPath       string
	defaultColumns int
	defaultProb    float64

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChartConfig sets the figure configuration.
func WithChartConfig(cfg chart.Config) Option {
	return func(s *Service) {
		s.chartConfig = cfg
	}
}

// WithPolarity sets the normalizer polarity table.
func WithPolarity(p normalize.Polarity) Option {
	return func(s *Service) {
		s.polarity = p
	}
}

// WithDataPath sets the CSV file loaded on Start and Reload.
func WithDataPath(path string) Option {
	return func(s *Service) {
		s.dataPath = path
	}
}

// WithStore replaces the dataset store, e.g. with a pre-seeded one.
func WithStore(store *dataset.MemoryStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDefaults sets the grid width and band probability used when a
// request leaves them unset.
func WithDefaults(columns int, prob float64) Option {
	return func(s *Service) {
		if columns > 0 {
			s.defaultColumns = columns
		}
		if prob > 0 && prob <= 1 {
			s.defaultProb = prob
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:          dataset.NewMemoryStore(),
		chartConfig:    chart.DefaultConfig(),
		polarity:       normalize.DefaultPolarity(),
		defaultColumns: 2,
		defaultProb:    0.9,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.normalizer = normalize.New(normalize.WithPolarity(s.polarity))
	s.assembler = chart.NewAssembler(s.chartConfig, chart.WithNormalizer(s.normalizer))
	return s
}

// Start loads the configured dataset, if any.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting diagnostics service...")
	if s.dataPath != "" {
		if err := s.load(ctx, s.dataPath); err != nil {
			return err
		}
	} else {
		s.logger.Warn(ctx, "no data path configured; figure endpoints are unavailable until a reload")
	}

	s.started = true
	s.logger.Info(ctx, "diagnostics service started",
		logger.String("dataPath", s.dataPath),
		logger.Int("records", s.store.Count(ctx)),
		logger.Strings("transforms", s.assembler.Config().TransformOrder),
	)
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "diagnostics service stopped")
}

// Reload re-reads the data file. On failure the previous dataset is kept.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.dataPath == "" {
		return ErrNoDataPath
	}
	return s.load(ctx, s.dataPath)
}

func (s *Service) load(ctx context.Context, path string) error {
	start := time.Now()
	err := s.store.Load(ctx, path)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordDatasetLoad(0, 0, latency, err)
		s.logger.Error(ctx, "dataset load failed", logger.String("path", path), logger.Error(err))
		return fmt.Errorf("load %s: %w", path, err)
	}
	cols, _ := s.store.Columns(ctx)
	n := s.store.Count(ctx)
	metrics.RecordDatasetLoad(n, len(cols), latency, nil)
	s.logger.Info(ctx, "dataset loaded",
		logger.String("path", path),
		logger.Int("records", n),
		logger.Strings("columns", cols),
		logger.Float64("latencyMs", latency),
	)
	return nil
}

func (s *Service) withDefaults(opts chart.Options) chart.Options {
	if opts.Columns == 0 {
		opts.Columns = s.defaultColumns
	}
	if opts.Prob == 0 {
		opts.Prob = s.defaultProb
	}
	return opts
}

// Summary builds the per-configuration summary figure for the loaded dataset.
func (s *Service) Summary(ctx context.Context, opts chart.Options) (chart.Figure, error) {
	return s.figure(ctx, OpSummary, s.withDefaults(opts), s.assembler.Summary)
}

// Bands builds the quantile band figure for the loaded dataset.
func (s *Service) Bands(ctx context.Context, opts chart.Options) (chart.Figure, error) {
	return s.figure(ctx, OpBands, s.withDefaults(opts), s.assembler.Bands)
}

type buildFunc func([]record.Record, chart.Options) (chart.Figure, error)

func (s *Service) figure(ctx context.Context, kind string, opts chart.Options, build buildFunc) (chart.Figure, error) {
	start := time.Now()
	records, err := s.store.Records(ctx,
		dataset.WithTarget(opts.Target),
		dataset.WithLogScale(opts.LogScale),
		dataset.WithEstimate(opts.Estimate),
	)
	if err != nil {
		return chart.Figure{}, err
	}

	fig, err := build(records, opts)
	latency := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordFigure(kind, len(fig.Data), latency, err)
	if err != nil {
		metrics.RecordOperationError(kind, ErrorKind(err))
		s.log().Debug(ctx, "figure build failed",
			logger.String("kind", kind),
			logger.String("column", opts.Column),
			logger.Error(err),
		)
		return chart.Figure{}, fmt.Errorf("%s figure: %w", kind, err)
	}

	s.log().Debug(ctx, "figure built",
		logger.String("kind", kind),
		logger.String("column", opts.Column),
		logger.Int("traces", len(fig.Data)),
		logger.Bool("normalized", opts.Normalized),
		logger.Float64("latencyMs", latency),
	)
	return fig, nil
}

// Quantiles runs the grouper over caller-supplied records.
func (s *Service) Quantiles(ctx context.Context, records []record.Record, targetField string, groupFields []string, levels []float64) ([]quantile.Result, error) {
	metrics.RecordOperation(OpQuantiles, len(records))
	results, err := quantile.GroupQuantiles(records, targetField, groupFields, levels)
	if err != nil {
		metrics.RecordOperationError(OpQuantiles, ErrorKind(err))
		s.log().Debug(ctx, "quantiles failed", logger.String("target", targetField), logger.Error(err))
		return nil, err
	}
	s.log().Debug(ctx, "quantiles computed",
		logger.String("target", targetField),
		logger.Strings("groupFields", groupFields),
		logger.Int("groups", len(results)),
	)
	return results, nil
}

// Normalize runs the best-value normalizer over caller-supplied records.
// An empty outputField uses <metric>_normalized.
func (s *Service) Normalize(ctx context.Context, records []record.Record, metric, outputField string) ([]record.Record, error) {
	metrics.RecordOperation(OpNormalize, len(records))
	n := s.normalizer
	if outputField != "" {
		n = normalize.New(normalize.WithPolarity(s.polarity), normalize.WithOutputField(outputField))
	}
	out, err := n.NormalizeByBest(records, metric)
	if err != nil {
		metrics.RecordOperationError(OpNormalize, ErrorKind(err))
		s.log().Debug(ctx, "normalize failed", logger.String("metric", metric), logger.Error(err))
		return nil, err
	}
	s.log().Debug(ctx, "normalized",
		logger.String("metric", metric),
		logger.String("direction", s.polarity.Direction(metric).String()),
		logger.Int("records", len(out)),
	)
	return out, nil
}

// Columns describes the plottable columns and transform legend.
func (s *Service) Columns(ctx context.Context) (chart.Catalog, error) {
	cols, err := s.store.Columns(ctx)
	if err != nil {
		return chart.Catalog{}, err
	}
	logScales, err := s.store.Distinct(ctx, chart.FieldLogScale)
	if err != nil {
		return chart.Catalog{}, err
	}
	estimates, err := s.store.Distinct(ctx, chart.FieldEstimate)
	if err != nil {
		return chart.Catalog{}, err
	}
	return s.assembler.Catalog(cols, logScales, estimates), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":        s.started,
		"dataPath":       s.dataPath,
		"defaultColumns": s.defaultColumns,
		"defaultProb":    s.defaultProb,
		"transforms":     len(s.assembler.Config().TransformOrder),
	}
	if s.started {
		stats["records"] = s.store.Count(ctx)
		if cols, err := s.store.Columns(ctx); err == nil {
			stats["columns"] = len(cols)
		}
		if at := s.store.LoadedAt(); !at.IsZero() {
			stats["loadedAt"] = at.UTC().Format(time.RFC3339)
		}
	}
	return stats
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// ErrorKind returns a stable label for err, used in metrics and API codes.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, record.ErrMissingField):
		return "missing_field"
	case errors.Is(err, record.ErrInvalidNumericValue):
		return "invalid_numeric_value"
	case errors.Is(err, record.ErrEmptyGroup):
		return "empty_group"
	case errors.Is(err, record.ErrZeroOrMissingBestValue):
		return "zero_or_missing_best_value"
	case errors.Is(err, quantile.ErrNoGroupFields):
		return "no_group_fields"
	case errors.Is(err, quantile.ErrInvalidLevel):
		return "invalid_level"
	case errors.Is(err, chart.ErrInvalidOptions):
		return "invalid_options"
	case errors.Is(err, dataset.ErrNotLoaded):
		return "not_loaded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
