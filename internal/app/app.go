// Package app builds the object graph shared by the binaries.
package app

import (
	"context"
	"log/slog"

	"github.com/ocrpipe/ocrpipe/internal/bench"
	"github.com/ocrpipe/ocrpipe/internal/classify"
	"github.com/ocrpipe/ocrpipe/internal/clean"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/engine"
	"github.com/ocrpipe/ocrpipe/internal/format"
	"github.com/ocrpipe/ocrpipe/internal/pipeline"
	"github.com/ocrpipe/ocrpipe/internal/vision"
)

// Components is the wired application graph.
type Components struct {
	Provider   vision.Provider
	Registry   *engine.Registry
	Classifier *classify.Classifier
	Router     *pipeline.Router
	Pipeline   *pipeline.Pipeline
	Formatter  *format.Formatter
	Library    *bench.Library
}

// Build wires everything except the results store, which only some binaries
// need.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Components, error) {
	factory := vision.NewFactory(cfg.Vision, logger)
	provider, err := factory.NewDefault(ctx)
	if err != nil {
		return nil, err
	}

	classifier := classify.NewClassifier(provider, cfg.Classify, logger)
	registry := engine.NewRegistry(
		engine.NewTesseract(cfg.Engines, logger),
		engine.NewSurya(cfg.Engines, logger),
		engine.NewVisionEngine(provider, logger),
	)

	router := pipeline.NewRouter(registry, classifier, cfg.Engines.CallTimeout, logger)
	coordinator := pipeline.NewCoordinator(registry, cfg.Engines.CallTimeout, logger)
	fuser := pipeline.NewFuser(provider, factory, cfg.Pipeline.PerfectTables, cfg.Vision.UpgradeProvider, logger)
	quality := clean.Thresholds{
		MinWords:         cfg.Quality.MinWords,
		MinCleanRatio:    cfg.Quality.MinCleanRatio,
		MinAvgConfidence: cfg.Quality.MinAvgConfidence,
	}
	pipe := pipeline.New(classifier, registry, coordinator, fuser, cfg.Pipeline, quality, cfg.Engines.CallTimeout, logger)

	return &Components{
		Provider:   provider,
		Registry:   registry,
		Classifier: classifier,
		Router:     router,
		Pipeline:   pipe,
		Formatter:  format.NewFormatter(provider, logger),
		Library:    bench.NewLibrary(cfg.Benchmark.DatasetRoot, logger),
	}, nil
}
