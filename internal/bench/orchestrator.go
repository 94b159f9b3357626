package bench

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ocrpipe/ocrpipe/internal/engine"
)

// Extractor is the slice of the routing layer the orchestrator needs.
type Extractor interface {
	Route(ctx context.Context, image []byte, forcedEngine string) (engine.Result, error)
}

// RunOptions select what a benchmark run covers. Zero values mean all
// datasets, classifier-driven routing, and no sample cap.
type RunOptions struct {
	Datasets    []string
	ForceEngine string
	MaxSamples  int
}

// Orchestrator runs the extraction pipeline over dataset samples, scores the
// output against ground truth, and appends every result to the store.
type Orchestrator struct {
	library   *Library
	extractor Extractor
	store     *Store
	logger    *slog.Logger
}

func NewOrchestrator(library *Library, extractor Extractor, store *Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		library:   library,
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// RunBenchmark processes the selected samples one at a time. A sample that
// cannot be read or extracted is logged and skipped; the run itself only
// fails when the dataset listing or the context does. Returned results are
// the rows that were persisted, in run order.
func (o *Orchestrator) RunBenchmark(ctx context.Context, opts RunOptions) ([]TestResult, error) {
	samples, err := o.library.ListSamples(opts.Datasets)
	if err != nil {
		return nil, err
	}
	if opts.MaxSamples > 0 && len(samples) > opts.MaxSamples {
		samples = samples[:opts.MaxSamples]
	}
	o.logger.Info("bench.run.start",
		"samples", len(samples),
		"datasets", opts.Datasets,
		"force_engine", opts.ForceEngine,
	)

	var results []TestResult
	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := o.runSample(ctx, sample, opts.ForceEngine)
		if err != nil {
			o.logger.Warn("bench.sample.failed", "sample", sample.ID, "error", err)
			continue
		}
		if o.store != nil {
			if err := o.store.Append(ctx, result); err != nil {
				o.logger.Warn("bench.sample.persist_failed", "sample", sample.ID, "error", err)
				continue
			}
		}
		results = append(results, result)
	}
	o.logger.Info("bench.run.done", "completed", len(results), "skipped", len(samples)-len(results))
	return results, nil
}

func (o *Orchestrator) runSample(ctx context.Context, sample Sample, forcedEngine string) (TestResult, error) {
	image, err := os.ReadFile(sample.ImagePath)
	if err != nil {
		return TestResult{}, err
	}

	start := time.Now()
	res, err := o.extractor.Route(ctx, image, forcedEngine)
	if err != nil {
		return TestResult{}, err
	}
	elapsed := time.Since(start).Seconds()

	result := TestResult{
		SampleID:       sample.ID,
		Dataset:        sample.Dataset,
		Engine:         res.EngineID,
		PredictedText:  res.Text,
		ProcessingTime: elapsed,
		Timestamp:      time.Now().UTC(),
	}
	if sample.GroundTruthPath != "" {
		raw, err := os.ReadFile(sample.GroundTruthPath)
		if err != nil {
			// image still extracted fine; keep the row, just unscored
			o.logger.Warn("bench.ground_truth.unreadable", "sample", sample.ID, "error", err)
			return result, nil
		}
		gt := strings.TrimSpace(string(raw))
		m := Calculate(gt, strings.TrimSpace(res.Text))
		result.GroundTruth = &gt
		result.Metrics = &m
	}
	return result, nil
}

// Summary delegates to the store.
func (o *Orchestrator) Summary(ctx context.Context, f SummaryFilter) (Summary, error) {
	return o.store.Summary(ctx, f)
}
