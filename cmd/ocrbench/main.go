package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ocrpipe/ocrpipe/internal/app"
	"github.com/ocrpipe/ocrpipe/internal/bench"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/export"
)

func main() {
	datasets := flag.String("datasets", "", "comma-separated dataset names (empty = all)")
	forceEngine := flag.String("engine", "", "force a single engine instead of routing")
	maxSamples := flag.Int("max", 0, "cap on samples processed (0 = no cap)")
	exportPath := flag.String("export", "", "write an XLSX report to this path")
	summaryDays := flag.Int("summary-days", 0, "also print a summary over the last N days (0 = all time)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build components", "error", err)
		os.Exit(1)
	}
	store, err := bench.OpenStore(ctx, cfg.Store.DSN, logger)
	if err != nil {
		logger.Error("open results store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("close results store", "error", cerr)
		}
	}()

	var datasetNames []string
	if *datasets != "" {
		for _, name := range strings.Split(*datasets, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				datasetNames = append(datasetNames, trimmed)
			}
		}
	}

	orch := bench.NewOrchestrator(components.Library, components.Router, store, logger)
	start := time.Now()
	results, err := orch.RunBenchmark(ctx, bench.RunOptions{
		Datasets:    datasetNames,
		ForceEngine: *forceEngine,
		MaxSamples:  *maxSamples,
	})
	if err != nil {
		logger.Error("benchmark run failed", "error", err)
		os.Exit(1)
	}
	logger.Info("benchmark complete",
		"results", len(results),
		"elapsed_s", time.Since(start).Seconds(),
	)

	filter := bench.SummaryFilter{Engine: *forceEngine}
	if *summaryDays > 0 {
		filter.Window = time.Duration(*summaryDays) * 24 * time.Hour
	}
	summary, err := orch.Summary(ctx, filter)
	if err != nil {
		logger.Error("summary failed", "error", err)
		os.Exit(1)
	}
	logger.Info("summary",
		"total_tests", summary.TotalTests,
		"avg_cer", summary.AvgCER,
		"avg_wer", summary.AvgWER,
		"avg_accuracy", summary.AvgAccuracy,
		"avg_processing_time", summary.AvgProcessingTime,
	)

	if *exportPath != "" {
		workbook, err := export.ResultsXLSX(results, summary, logger)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*exportPath, workbook, 0o644); err != nil {
			logger.Error("write export", "path", *exportPath, "error", err)
			os.Exit(1)
		}
		logger.Info("export written", "path", *exportPath)
	}
}
