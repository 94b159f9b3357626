package classify

import (
	"context"
	"log/slog"
	"time"

	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/vision"
)

const analysisPrompt = `Analyze this document image carefully. You must categorize the MAJORITY of the text.

CRITICAL: Count the text carefully!
- If the document is mostly PRINTED/TYPED text -> TYPE: print
- If the document is mostly HANDWRITTEN text -> TYPE: handwriting
- Only use MIXED if handwritten content is at least 30% of the text.
  A few handwritten notes on a printed form = PRINT, not mixed!
- Use SCREENSHOT for captures of digital content (websites, apps).
- Use TABLE for documents dominated by structured tables.

Questions to answer:

1. Document type: what is the majority of the content?
2. Complexity: LOW simple single-column text, MEDIUM multi-column or some
   structure, HIGH complex tables, mixed layouts, dense formatting.
3. Tables: are there structured tables with rows/columns?
4. Handwriting: is there any handwriting, and where?
5. Signatures: are there signatures?
6. Language: main language of the text.
7. Recommended engine: TESSERACT for clean printed text, forms, invoices;
   SURYA for messy handwriting, hand-filled forms, poor quality scans.

FORMAT YOUR RESPONSE:
TYPE: [print/handwriting/mixed/screenshot/table]
COMPLEXITY: [low/medium/high]
TABLES: [yes/no]
HANDWRITING: [yes/no - where located]
SIGNATURES: [yes/no]
LANGUAGE: [language]
RECOMMENDED_ENGINE: [tesseract/surya]

Then explain your reasoning in 2-3 sentences.`

// Classifier decides the document type in two stages: cheap local heuristics
// first, then a structured reasoning-model call.
type Classifier struct {
	provider vision.Provider
	cfg      common.ClassifyConfig
	logger   *slog.Logger
}

func NewClassifier(provider vision.Provider, cfg common.ClassifyConfig, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinDimension <= 0 {
		cfg.MinDimension = 100
	}
	if cfg.BlurVariance <= 0 {
		cfg.BlurVariance = 100.0
	}
	return &Classifier{provider: provider, cfg: cfg, logger: logger}
}

// Classify returns the document analysis for an image. It never returns an
// error: model failures degrade to the default analysis so classification can
// never block the pipeline.
func (c *Classifier) Classify(ctx context.Context, image []byte) Analysis {
	start := time.Now()

	if a, bad := c.checkLowQuality(image); bad {
		c.logger.Info("classify.low_quality", "reason", a.RawAnalysis)
		return a
	}

	response, err := c.provider.Analyze(ctx, image, analysisPrompt)
	if err != nil {
		c.logger.Warn("classify.model_error", "error", err)
		return DefaultAnalysis()
	}

	a := ParseAnalysis(response)
	c.logger.Info("classify.ok",
		"document_type", a.DocumentType,
		"complexity", a.Complexity,
		"has_tables", a.HasTables,
		"has_handwriting", a.HasHandwriting,
		"recommended_engine", a.RecommendedEngine,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return a
}

// checkLowQuality runs the local heuristics: a tiny image or one with almost
// no edge response is low quality and skips the model call entirely.
func (c *Classifier) checkLowQuality(image []byte) (Analysis, bool) {
	gray, err := decodeGray(image)
	if err != nil {
		// Not decodable locally; let the model try anyway.
		c.logger.Warn("classify.decode_error", "error", err)
		return Analysis{}, false
	}
	b := gray.Bounds()
	if b.Dx() < c.cfg.MinDimension || b.Dy() < c.cfg.MinDimension {
		return lowQualityAnalysis("image below minimum dimensions"), true
	}
	if v := laplacianVariance(gray); v < c.cfg.BlurVariance {
		return lowQualityAnalysis("blur variance below threshold"), true
	}
	return Analysis{}, false
}
