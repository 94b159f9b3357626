package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/common"
)

// Tesseract is the fast printed-text engine, backed by libtesseract via
// gosseract. A fresh client is created per call: gosseract clients are not
// safe for concurrent use on a shared handle.
type Tesseract struct {
	cfg    common.EngineConfig
	logger *slog.Logger
}

func NewTesseract(cfg common.EngineConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Tesseract{cfg: cfg, logger: logger}
}

func (t *Tesseract) ID() string { return constants.EngineTesseract }

// Available reports whether the configured language pack is installed.
func (t *Tesseract) Available(ctx context.Context) bool {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return false
	}
	for _, l := range langs {
		if l == t.cfg.TesseractLang {
			return true
		}
	}
	return false
}

func (t *Tesseract) Process(ctx context.Context, image []byte) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := gosseract.NewClient()
	defer func() {
		if cerr := client.Close(); cerr != nil {
			t.logger.Warn("engine.tesseract.close_error", "error", cerr)
		}
	}()

	if err := client.SetLanguage(t.cfg.TesseractLang); err != nil {
		return Result{}, fmt.Errorf("tesseract set language: %w", err)
	}
	if t.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataDir); err != nil {
			return Result{}, fmt.Errorf("tesseract tessdata prefix: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return Result{}, fmt.Errorf("tesseract set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w", err)
	}

	// Native confidence: mean word confidence 0..100 scaled to 0..1, blended
	// with the text heuristic. Word boxes are best-effort; without them the
	// heuristic stands alone.
	var nativeConf float64
	var wordCount int
	if boxes, berr := client.GetBoundingBoxes(gosseract.RIL_WORD); berr == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		nativeConf = sum / float64(len(boxes)) / 100.0
		wordCount = len(boxes)
	}
	conf := heuristicConfidence(text)
	if nativeConf > 0 {
		conf = 0.7*nativeConf + 0.3*conf
	}
	if conf > 1.0 {
		conf = 1.0
	}

	t.logger.Debug("engine.tesseract.ok",
		"chars", len(text),
		"words", wordCount,
		"confidence", conf,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Text:       text,
		Confidence: conf,
		EngineID:   t.ID(),
		Metadata: map[string]any{
			"language":   t.cfg.TesseractLang,
			"word_boxes": wordCount,
		},
	}, nil
}
