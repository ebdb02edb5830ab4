// Command pcrparse analyzes PCR instrument spreadsheet exports from the
// command line and writes normalized records as CSV or JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"pcrcli/internal/config"
	"pcrcli/internal/exporter"
	"pcrcli/internal/formats"
	"pcrcli/internal/infrastructure"
)

func main() {
	out := flag.String("out", "", "output directory (defaults to reports dir from config)")
	format := flag.String("format", "csv", "output format: csv | json | both")
	workers := flag.Int("workers", 4, "number of files analyzed in parallel")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: pcrparse [flags] <export.xlsx> [more.xlsx ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	switch *format {
	case "csv", "json", "both":
	default:
		fmt.Fprintf(os.Stderr, "unknown output format %q\n", *format)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{Level: "info", Format: "text", Output: "console"},
			Paths:   config.PathsConfig{ReportsDir: "reports"},
		}
	}
	if *out == "" {
		*out = cfg.Paths.ReportsDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	registry := formats.DefaultRegistry(logger)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*workers)

	for _, path := range flag.Args() {
		path := path
		g.Go(func() error {
			return analyzeOne(ctx, registry, logger, path, *out, *format)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("All files analyzed", slog.Int("count", flag.NArg()))
}

func analyzeOne(ctx context.Context, registry *formats.Registry, logger *slog.Logger, path, outDir, format string) error {
	record, err := registry.Analyze(ctx, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	writer := exporter.NewCSVWriter(filepath.Join(outDir, base))

	if format == "csv" || format == "both" {
		if err := writer.WriteRecordCSV(record); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if format == "json" || format == "both" {
		if err := writer.WriteRecordJSON(record, "record.json"); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	logger.Info("File analyzed",
		slog.String("path", path),
		slog.String("format", string(record.Format)),
		slog.Int("wells", len(record.Wells)),
		slog.Int("cycles", record.CycleCount))
	return nil
}
