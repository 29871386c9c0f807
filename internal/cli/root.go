package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/transformdiag/internal/app"
	"github.com/okian/transformdiag/internal/domain/chart"
)

// RootCmd is the diagctl root command. Sub-commands share a.Params.
func RootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "diagctl",
		Short:         "diagctl runs transform diagnostics over a CSV file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(a.Out)
	cmd.SetErr(a.Err)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.Params.DataPath, "data", "", "Diagnostics CSV file")
	flags.StringVar(&a.Params.Format, "format", FormatJSON, "Output format: json or csv")
	flags.StringVar(&a.Params.LogLevel, "log-level", "error", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		quantilesCmd(a),
		normalizeCmd(a),
		figureCmd(a),
		columnsCmd(a),
	)
	return cmd
}

func quantilesCmd(a *App) *cobra.Command {
	var (
		target string
		groups []string
		levels string
	)
	cmd := &cobra.Command{
		Use:   "quantiles",
		Short: "Per-group empirical quantiles of a numeric column.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := parseLevels(levels)
			if err != nil {
				return err
			}
			return a.Quantiles(cmd.Context(), target, groups, ls)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Numeric column to summarise")
	cmd.Flags().StringSliceVar(&groups, "group", nil, "Grouping columns, comma separated")
	cmd.Flags().StringVar(&levels, "levels", "0.05,0.5,0.95", "Quantile levels in [0, 1], comma separated")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func normalizeCmd(a *App) *cobra.Command {
	var metric, output string
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Divide a metric by the best value of its (target, target_config, chain) group.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Normalize(cmd.Context(), metric, output)
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "", "Metric column to normalize")
	cmd.Flags().StringVar(&output, "output-field", "", "Derived column name (default <metric>_normalized)")
	_ = cmd.MarkFlagRequired("metric")
	return cmd
}

func figureCmd(a *App) *cobra.Command {
	var opts chart.Options
	cmd := &cobra.Command{
		Use:       "figure <summary|bands>",
		Short:     "Build a Plotly figure specification.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{service.OpSummary, service.OpBands},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Figure(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Column, "column", "", "Metric column to plot")
	cmd.Flags().IntVar(&opts.Columns, "cols", 0, "Summary grid columns (default from config)")
	cmd.Flags().Float64Var(&opts.Prob, "prob", 0, "Central mass of the band figure (default from config)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Keep rows of this target distribution")
	cmd.Flags().StringVar(&opts.LogScale, "log-scale", "", "Keep rows whose log_scale equals this value")
	cmd.Flags().StringVar(&opts.Estimate, "estimate", "", "Keep rows whose estimate equals this value")
	cmd.Flags().BoolVar(&opts.Normalized, "normalized", false, "Plot the best-value ratio of the column")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func columnsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List the plottable metric columns.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Columns(cmd.Context())
		},
	}
}

func parseLevels(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid level %q: %w", part, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no levels in %q", s)
	}
	return out, nil
}
