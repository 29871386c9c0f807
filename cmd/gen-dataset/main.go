package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/okian/transformdiag/internal/synth"
	"github.com/okian/transformdiag/pkg/logger"
)

const outputPermission = 0o600

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	def := synth.DefaultConfig()
	fs := flag.NewFlagSet("gen-dataset", flag.ContinueOnError)
	var (
		output     = fs.String("output", "", "Output CSV file (default: stdout)")
		targets    = fs.String("targets", strings.Join(def.Targets, ","), "Comma-separated target names")
		configs    = fs.String("configs", strings.Join(def.TargetConfigs, ","), "Comma-separated target configs, e.g. N3,N10")
		transforms = fs.String("transforms", strings.Join(def.Transforms, ","), "Comma-separated transforms")
		chains     = fs.Int("chains", def.Chains, "Chains per run")
		seed       = fs.Uint64("seed", def.Seed, "Random seed")
		workers    = fs.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		verbose    = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg := def
	cfg.Targets = splitList(*targets)
	cfg.TargetConfigs = splitList(*configs)
	cfg.Transforms = splitList(*transforms)
	cfg.Chains = *chains
	cfg.Seed = *seed
	cfg.Workers = *workers

	w := stdout
	if *output != "" {
		f, err := os.OpenFile(*output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPermission)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := synth.Write(ctx, w, cfg)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "dataset written", logger.Int("rows", n), logger.String("output", *output))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
