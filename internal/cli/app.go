// Package cli implements diagctl, a command line front end for the
// diagnostics operations over a local CSV file.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/okian/transformdiag/internal/adapters/dataset"
	service "github.com/okian/transformdiag/internal/app"
	"github.com/okian/transformdiag/internal/config"
	"github.com/okian/transformdiag/internal/domain/chart"
	"github.com/okian/transformdiag/internal/domain/quantile"
	"github.com/okian/transformdiag/internal/domain/record"
	"github.com/okian/transformdiag/pkg/logger"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

var warnColor = color.New(color.FgYellow).SprintFunc()

// Params holds the flags shared by every command.
type Params struct {
	DataPath string
	Format   string
	LogLevel string
}

// App runs diagctl commands against Params, writing results to Out and
// warnings to Err.
type App struct {
	Params *Params
	Out    io.Writer
	Err    io.Writer
}

// New returns an App writing to stdout and stderr.
func New() *App {
	return &App{
		Params: &Params{Format: FormatJSON, LogLevel: "error"},
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
}

// session is a started service over the dataset named by --data.
type session struct {
	svc   *service.Service
	store *dataset.MemoryStore
}

func (a *App) open(ctx context.Context) (*session, error) {
	if err := a.checkFormat(); err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithWriter(a.Err), logger.WithLevel(a.Params.LogLevel)); err != nil {
		return nil, err
	}
	if a.Params.DataPath == "" {
		return nil, errors.New("--data is required")
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	polarity, err := cfg.Polarity()
	if err != nil {
		return nil, err
	}

	store := dataset.NewMemoryStore()
	svc := service.New(
		service.WithLogger(logger.Named("diagctl")),
		service.WithStore(store),
		service.WithDataPath(a.Params.DataPath),
		service.WithChartConfig(cfg.ChartConfig()),
		service.WithPolarity(polarity),
		service.WithDefaults(cfg.DefaultColumns, cfg.DefaultProb),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return &session{svc: svc, store: store}, nil
}

func (s *session) close() { s.svc.Stop() }

func (a *App) checkFormat() error {
	switch a.Params.Format {
	case FormatJSON, FormatCSV:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, a.Params.Format)
	}
}

// Quantiles prints per-group quantiles of target.
func (a *App) Quantiles(ctx context.Context, target string, groups []string, levels []float64) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	records, err := a.rows(ctx, s, target)
	if err != nil {
		return err
	}
	results, err := s.svc.Quantiles(ctx, records, target, groups, levels)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		a.warn("no groups found")
	}

	header := append([]string(nil), groups...)
	for _, l := range levels {
		header = append(header, quantile.Label(l))
	}
	return a.writeRecords(header, quantile.Records(results))
}

// Normalize prints every record with the best-value ratio of metric added.
func (a *App) Normalize(ctx context.Context, metric, output string) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	records, err := a.rows(ctx, s, metric)
	if err != nil {
		return err
	}
	out, err := s.svc.Normalize(ctx, records, metric, output)
	if err != nil {
		return err
	}
	base, err := s.store.Header(ctx)
	if err != nil {
		return err
	}
	return a.writeRecords(dataset.HeaderOf(base, out), out)
}

// rows returns the dataset without the rows whose field cell is empty,
// warning with the number dropped.
func (a *App) rows(ctx context.Context, s *session, field string) ([]record.Record, error) {
	all, err := s.store.Records(ctx)
	if err != nil {
		return nil, err
	}
	kept, err := record.DropEmpty(all, field)
	if err != nil {
		return nil, err
	}
	if n := len(all) - len(kept); n > 0 {
		a.warn(fmt.Sprintf("dropped %d rows with an empty %s", n, field))
	}
	return kept, nil
}

// Figure prints a summary or bands figure as JSON.
func (a *App) Figure(ctx context.Context, kind string, opts chart.Options) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	var fig chart.Figure
	switch kind {
	case service.OpSummary:
		fig, err = s.svc.Summary(ctx, opts)
	case service.OpBands:
		fig, err = s.svc.Bands(ctx, opts)
	default:
		return fmt.Errorf("unknown figure %q", kind)
	}
	if err != nil {
		return err
	}
	if a.Params.Format == FormatCSV {
		a.warn("figures are always written as JSON")
	}
	return a.writeJSON(fig)
}

// Columns prints the plottable columns of the dataset.
func (a *App) Columns(ctx context.Context) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	cat, err := s.svc.Columns(ctx)
	if err != nil {
		return err
	}
	if a.Params.Format == FormatCSV {
		for _, c := range cat.Columns {
			fmt.Fprintln(a.Out, c)
		}
		return nil
	}
	return a.writeJSON(cat)
}

func (a *App) writeRecords(header []string, records []record.Record) error {
	if a.Params.Format == FormatCSV {
		return dataset.WriteCSV(a.Out, header, records)
	}
	return a.writeJSON(map[string][]record.Record{"records": records})
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) warn(msg string) {
	fmt.Fprintln(a.Err, warnColor("warning:"), msg)
}
