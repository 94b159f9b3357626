package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/classify"
	"github.com/ocrpipe/ocrpipe/internal/clean"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/engine"
)

// Synthetic pipeline confidences: fusion output has no native confidence, and
// the hybrid path has two engines agreeing behind it.
const (
	hybridConfidence = 0.98
	singleConfidence = 0.95
)

// Pipeline is the full multi-pass extraction: classify, extract (dual or
// single engine), then vision-guided fusion/correction.
type Pipeline struct {
	classifier  *classify.Classifier
	registry    *engine.Registry
	coordinator *Coordinator
	fuser       *Fuser
	cfg         common.PipelineConfig
	quality     clean.Thresholds
	callTimeout time.Duration
	logger      *slog.Logger
}

func New(
	classifier *classify.Classifier,
	registry *engine.Registry,
	coordinator *Coordinator,
	fuser *Fuser,
	cfg common.PipelineConfig,
	quality clean.Thresholds,
	callTimeout time.Duration,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		classifier:  classifier,
		registry:    registry,
		coordinator: coordinator,
		fuser:       fuser,
		cfg:         cfg,
		quality:     quality,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Process runs the complete pipeline on one image and returns the fused
// result with provenance metadata. Fusion failure is fatal here; callers that
// want a degraded raw-text answer must run the engines themselves.
func (p *Pipeline) Process(ctx context.Context, image []byte) (engine.Result, error) {
	start := time.Now()
	analysis := p.classifier.Classify(ctx, image)

	if p.cfg.UseHybridOCR {
		return p.processHybrid(ctx, image, analysis, start)
	}
	return p.processSingle(ctx, image, analysis, start)
}

func (p *Pipeline) processHybrid(ctx context.Context, image []byte, analysis classify.Analysis, start time.Time) (engine.Result, error) {
	dual, err := p.coordinator.DualExtract(ctx, image)
	if err != nil {
		return engine.Result{}, err
	}

	final, err := p.fuser.Fuse(ctx, image, dual, analysis)
	if err != nil {
		return engine.Result{}, err
	}

	rawLen := textLen(dual.Primary) + textLen(dual.Secondary)
	p.logger.Info("pipeline.hybrid.ok",
		"engines", dual.Label,
		"raw_chars", rawLen,
		"final_chars", len(final),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return engine.Result{
		Text:       final,
		Confidence: hybridConfidence,
		EngineID:   fmt.Sprintf("pipeline(%s+fusion)", dual.Label),
		Metadata: map[string]any{
			"pipeline":          "hybrid",
			"document_type":     string(analysis.DocumentType),
			"ocr_engines":       dual.Label,
			"raw_text_length":   rawLen,
			"final_text_length": len(final),
			"passes_completed":  3,
		},
	}, nil
}

func (p *Pipeline) processSingle(ctx context.Context, image []byte, analysis classify.Analysis, start time.Time) (engine.Result, error) {
	raw, engineUsed, err := p.extractSingle(ctx, image, analysis)
	if err != nil {
		return engine.Result{}, err
	}

	final, err := p.fuser.Correct(ctx, image, raw, analysis, engineUsed)
	if err != nil {
		return engine.Result{}, err
	}

	p.logger.Info("pipeline.single.ok",
		"engine", engineUsed,
		"raw_chars", len(raw),
		"final_chars", len(final),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return engine.Result{
		Text:       final,
		Confidence: singleConfidence,
		EngineID:   fmt.Sprintf("pipeline(%s+vision)", engineUsed),
		Metadata: map[string]any{
			"pipeline":          "single",
			"document_type":     string(analysis.DocumentType),
			"ocr_engines":       engineUsed,
			"raw_text_length":   len(raw),
			"final_text_length": len(final),
			"passes_completed":  3,
		},
	}, nil
}

// extractSingle picks one engine from the analysis: tesseract for print,
// surya for handwriting and mixed, otherwise the model's recommendation. A
// recommended-but-unavailable tesseract falls back to surya.
func (p *Pipeline) extractSingle(ctx context.Context, image []byte, analysis classify.Analysis) (string, string, error) {
	engineID := analysis.RecommendedEngine
	switch analysis.DocumentType {
	case constants.DocTypePrint:
		engineID = constants.EngineTesseract
	case constants.DocTypeHandwriting, constants.DocTypeMixed:
		engineID = constants.EngineSurya
	default:
		if engineID == "" || engineID == "auto" {
			engineID = constants.EngineSurya
		}
	}

	label := engineID
	if engineID == constants.EngineTesseract {
		if t, ok := p.registry.Get(constants.EngineTesseract); ok && t.Available(ctx) {
			res, err := p.processEngine(ctx, t, image)
			if err != nil {
				return "", "", fmt.Errorf("engine %s: %v: %w", engineID, err, common.ErrAllEnginesFailed)
			}
			return res.Text, label, nil
		}
		p.logger.Warn("pipeline.tesseract_unavailable", "fallback", constants.EngineSurya)
		engineID = constants.EngineSurya
		label = constants.EngineSurya + "_fallback"
	}

	e, ok := p.registry.Get(engineID)
	if !ok || !e.Available(ctx) {
		return "", "", fmt.Errorf("engine %s: %w", engineID, common.ErrNoEngines)
	}
	res, err := p.processEngine(ctx, e, image)
	if err != nil {
		return "", "", fmt.Errorf("engine %s: %v: %w", engineID, err, common.ErrAllEnginesFailed)
	}
	return res.Text, label, nil
}

func (p *Pipeline) processEngine(ctx context.Context, e engine.Engine, image []byte) (engine.Result, error) {
	if p.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.callTimeout)
		defer cancel()
	}
	return e.Process(ctx, image)
}

// GateOptions control the quality-gated fast path.
type GateOptions struct {
	// CleanLevel: 0 = raw, 1 = normalize, 2 = aggressive normalize.
	CleanLevel int
	// Handwriting forces the handwriting engine and its looser cleanup.
	Handwriting bool
}

// GatedExtract is the cheap path used by the HTTP surface: printed-text
// engine first, escalating to the handwriting engine when the acceptance gate
// rejects the result. No reasoning model is involved.
func (p *Pipeline) GatedExtract(ctx context.Context, image []byte, opts GateOptions) (string, error) {
	if opts.Handwriting {
		return p.gatedSurya(ctx, image, opts)
	}

	tess, ok := p.registry.Get(constants.EngineTesseract)
	if ok && tess.Available(ctx) {
		res, err := p.processEngine(ctx, tess, image)
		if err == nil && !clean.LooksUnacceptable(res.Text, res.Confidence, p.quality) {
			return p.cleanup(res.Text, opts), nil
		}
		if err != nil {
			p.logger.Warn("gated.tesseract_failed", "error", err)
		} else {
			p.logger.Info("gated.escalate", "confidence", res.Confidence)
		}
	}
	return p.gatedSurya(ctx, image, opts)
}

func (p *Pipeline) gatedSurya(ctx context.Context, image []byte, opts GateOptions) (string, error) {
	surya, ok := p.registry.Get(constants.EngineSurya)
	if !ok || !surya.Available(ctx) {
		return "", fmt.Errorf("handwriting engine: %w", common.ErrNoEngines)
	}
	res, err := p.processEngine(ctx, surya, image)
	if err != nil {
		return "", fmt.Errorf("handwriting engine: %v: %w", err, common.ErrAllEnginesFailed)
	}
	return p.cleanup(res.Text, opts), nil
}

func (p *Pipeline) cleanup(text string, opts GateOptions) string {
	if opts.CleanLevel <= 0 {
		return text
	}
	return clean.Normalize(text, opts.CleanLevel >= 2, opts.Handwriting)
}
