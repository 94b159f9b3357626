package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/vision"
)

// visionEngineConfidence is the synthetic confidence for non-empty output;
// vision models report no confidence at all.
const visionEngineConfidence = 0.9

const transcribePrompt = `Transcribe ALL text visible in this image exactly as written.
Preserve line breaks and reading order. Do not correct spelling, do not
summarize, do not add commentary. Output the transcription only.`

// VisionEngine adapts a reasoning-model provider into an extraction engine.
type VisionEngine struct {
	provider vision.Provider
	logger   *slog.Logger
}

func NewVisionEngine(provider vision.Provider, logger *slog.Logger) *VisionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionEngine{provider: provider, logger: logger}
}

func (v *VisionEngine) ID() string { return constants.EngineVision }

func (v *VisionEngine) Available(ctx context.Context) bool {
	return v.provider.Available(ctx)
}

func (v *VisionEngine) Process(ctx context.Context, image []byte) (Result, error) {
	start := time.Now()
	text, err := v.provider.Analyze(ctx, image, transcribePrompt)
	if err != nil {
		return Result{}, err
	}
	conf := 0.0
	if strings.TrimSpace(text) != "" {
		conf = visionEngineConfidence
	}
	v.logger.Debug("engine.vision.ok",
		"model", v.provider.Model(),
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Text:       text,
		Confidence: conf,
		EngineID:   v.ID(),
		Metadata:   map[string]any{"model": v.provider.Model()},
	}, nil
}
