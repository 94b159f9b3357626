// Package pipeline contains the control logic that routes work across
// extraction engines: classification-driven engine selection, dual-engine
// coordination, vision-guided fusion, and the quality-gated fast path.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/classify"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/engine"
)

// maxEnginesPerDocument bounds extraction cost regardless of how long the
// selection list is.
const maxEnginesPerDocument = 2

// Router maps a document analysis to an ordered engine preference and runs
// the best candidates.
type Router struct {
	registry    *engine.Registry
	classifier  *classify.Classifier
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewRouter(registry *engine.Registry, classifier *classify.Classifier, callTimeout time.Duration, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry:    registry,
		classifier:  classifier,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// preferenceFor is the routing policy: document type to ordered engine ids.
// Pure function; availability filtering happens at selection time.
func preferenceFor(docType constants.DocumentType) []string {
	switch docType {
	case constants.DocTypePrint:
		return []string{constants.EngineTesseract, constants.EngineVision}
	case constants.DocTypeHandwriting:
		return []string{constants.EngineSurya, constants.EngineVision}
	case constants.DocTypeMixed:
		// handwriting-first: under-detecting handwriting costs more than
		// under-detecting print
		return []string{constants.EngineSurya, constants.EngineTesseract}
	case constants.DocTypeScreenshot:
		return []string{constants.EngineVision, constants.EngineTesseract}
	case constants.DocTypeTableHeavy:
		return []string{constants.EngineVision}
	default:
		// low_quality, unknown: try everything registered
		return nil
	}
}

// SelectEngines returns the ordered candidate engines for an analysis,
// filtered by current availability. An empty preference means all engines.
func (r *Router) SelectEngines(ctx context.Context, analysis classify.Analysis) []engine.Engine {
	docType := analysis.DocumentType
	if docType == "" || docType == constants.DocTypeUnknown {
		docType = constants.DocTypePrint
	}

	ids := preferenceFor(docType)
	var candidates []engine.Engine
	if ids == nil {
		candidates = r.registry.All()
	} else {
		for _, id := range ids {
			if e, ok := r.registry.Get(id); ok {
				candidates = append(candidates, e)
			}
		}
	}

	var available []engine.Engine
	for _, e := range candidates {
		if e.Available(ctx) {
			available = append(available, e)
		}
	}
	return available
}

// Route classifies the image, runs up to two candidate engines, and returns
// the highest-confidence result with provenance metadata. A non-empty
// forcedEngine bypasses classification entirely; forcing an unavailable
// engine is a request error. Individual engine failures are isolated; only
// all engines failing is fatal.
func (r *Router) Route(ctx context.Context, image []byte, forcedEngine string) (engine.Result, error) {
	if forcedEngine != "" {
		return r.routeForced(ctx, image, forcedEngine)
	}

	analysis := r.classifier.Classify(ctx, image)
	engines := r.SelectEngines(ctx, analysis)
	if len(engines) == 0 {
		return engine.Result{}, fmt.Errorf("document type %s: %w", analysis.DocumentType, common.ErrNoEngines)
	}
	if len(engines) > maxEnginesPerDocument {
		engines = engines[:maxEnginesPerDocument]
	}

	var results []engine.Result
	var tried []string
	for _, e := range engines {
		tried = append(tried, e.ID())
		res, err := r.process(ctx, e, image)
		if err != nil {
			// excluded from candidates, not treated as zero confidence
			r.logger.Warn("router.engine_failed", "engine", e.ID(), "error", err)
			continue
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		return engine.Result{}, fmt.Errorf("engines %v: %w", tried, common.ErrAllEnginesFailed)
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.Confidence > best.Confidence {
			best = res
		}
	}

	succeeded := make([]string, 0, len(results))
	for _, res := range results {
		succeeded = append(succeeded, res.EngineID)
	}
	best.Metadata = cloneMetadata(best.Metadata)
	best.Metadata["document_type"] = string(analysis.DocumentType)
	best.Metadata["engines_tried"] = tried
	best.Metadata["engines_succeeded"] = succeeded

	r.logger.Info("router.ok",
		"engine", best.EngineID,
		"confidence", best.Confidence,
		"document_type", analysis.DocumentType,
		"engines_tried", tried,
	)
	return best, nil
}

func (r *Router) routeForced(ctx context.Context, image []byte, forcedEngine string) (engine.Result, error) {
	e, ok := r.registry.Get(forcedEngine)
	if !ok || !e.Available(ctx) {
		return engine.Result{}, fmt.Errorf("engine %q: %w", forcedEngine, common.ErrEngineUnavailable)
	}
	res, err := r.process(ctx, e, image)
	if err != nil {
		return engine.Result{}, fmt.Errorf("engine %q: %w", forcedEngine, err)
	}
	res.Metadata = cloneMetadata(res.Metadata)
	res.Metadata["engines_tried"] = []string{forcedEngine}
	res.Metadata["engines_succeeded"] = []string{forcedEngine}
	return res, nil
}

// process runs one engine invocation under the per-call timeout. A timeout is
// indistinguishable from any other engine failure.
func (r *Router) process(ctx context.Context, e engine.Engine, image []byte) (engine.Result, error) {
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}
	return e.Process(ctx, image)
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+3)
	for k, v := range m {
		out[k] = v
	}
	return out
}
