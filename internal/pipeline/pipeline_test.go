package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/classify"
	"github.com/ocrpipe/ocrpipe/internal/clean"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/engine"
)

func newTestPipeline(provider *fakeProvider, hybrid bool, engines ...engine.Engine) *Pipeline {
	registry := engine.NewRegistry(engines...)
	classifier := classify.NewClassifier(provider, common.ClassifyConfig{}, testLogger())
	coordinator := NewCoordinator(registry, 0, testLogger())
	fuser := NewFuser(provider, nil, false, "", testLogger())
	quality := clean.Thresholds{MinWords: 3, MinCleanRatio: 0.5, MinAvgConfidence: 0.5}
	cfg := common.PipelineConfig{UseHybridOCR: hybrid}
	return New(classifier, registry, coordinator, fuser, cfg, quality, 0, testLogger())
}

func TestProcessHybrid(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, text: "printed", confidence: 0.7}
	surya := &fakeEngine{id: constants.EngineSurya, text: "handwritten", confidence: 0.8}
	provider := &fakeProvider{response: "TYPE: print"}
	p := newTestPipeline(provider, true, tess, surya)

	res, err := p.Process(context.Background(), []byte("not an image"))
	require.NoError(t, err)
	// the fake provider answers the fusion prompt with the same canned text
	assert.Equal(t, "TYPE: print", res.Text)
	assert.Equal(t, hybridConfidence, res.Confidence)
	assert.Equal(t, "hybrid", res.Metadata["pipeline"])
	assert.Equal(t, constants.EngineTesseract+"+"+constants.EngineSurya, res.Metadata["ocr_engines"])
	assert.Equal(t, 3, res.Metadata["passes_completed"])
}

func TestProcessSinglePrintUsesTesseract(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, text: "printed", confidence: 0.7}
	surya := &fakeEngine{id: constants.EngineSurya, text: "handwritten", confidence: 0.8}
	provider := &fakeProvider{response: "TYPE: print"}
	p := newTestPipeline(provider, false, tess, surya)

	res, err := p.Process(context.Background(), []byte("not an image"))
	require.NoError(t, err)
	assert.Equal(t, singleConfidence, res.Confidence)
	assert.Equal(t, "single", res.Metadata["pipeline"])
	assert.Equal(t, constants.EngineTesseract, res.Metadata["ocr_engines"])
	assert.EqualValues(t, 1, tess.calls.Load())
	assert.Zero(t, surya.calls.Load())
}

func TestProcessSingleFallsBackWhenTesseractGone(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, unavailable: true}
	surya := &fakeEngine{id: constants.EngineSurya, text: "handwritten", confidence: 0.8}
	provider := &fakeProvider{response: "TYPE: print"}
	p := newTestPipeline(provider, false, tess, surya)

	res, err := p.Process(context.Background(), []byte("not an image"))
	require.NoError(t, err)
	assert.Equal(t, constants.EngineSurya+"_fallback", res.Metadata["ocr_engines"])
	assert.EqualValues(t, 1, surya.calls.Load())
}

func TestGatedExtractAcceptsGoodTesseract(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, text: "the quick brown fox jumps over", confidence: 0.9}
	surya := &fakeEngine{id: constants.EngineSurya, text: "surya text", confidence: 0.8}
	p := newTestPipeline(&fakeProvider{}, false, tess, surya)

	text, err := p.GatedExtract(context.Background(), []byte("img"), GateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "the quick brown fox jumps over", text)
	assert.Zero(t, surya.calls.Load())
}

func TestGatedExtractEscalatesOnLowConfidence(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, text: "plausible words here anyway", confidence: 0.1}
	surya := &fakeEngine{id: constants.EngineSurya, text: "surya text rescued this", confidence: 0.8}
	p := newTestPipeline(&fakeProvider{}, false, tess, surya)

	text, err := p.GatedExtract(context.Background(), []byte("img"), GateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "surya text rescued this", text)
	assert.EqualValues(t, 1, tess.calls.Load())
}

func TestGatedExtractHandwritingSkipsTesseract(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, text: "never used", confidence: 0.9}
	surya := &fakeEngine{id: constants.EngineSurya, text: "handwritten note", confidence: 0.8}
	p := newTestPipeline(&fakeProvider{}, false, tess, surya)

	text, err := p.GatedExtract(context.Background(), []byte("img"), GateOptions{Handwriting: true})
	require.NoError(t, err)
	assert.Equal(t, "handwritten note", text)
	assert.Zero(t, tess.calls.Load())
}

func TestGatedExtractNoHandwritingEngine(t *testing.T) {
	tess := &fakeEngine{id: constants.EngineTesseract, text: "x", confidence: 0.1}
	p := newTestPipeline(&fakeProvider{}, false, tess)

	_, err := p.GatedExtract(context.Background(), []byte("img"), GateOptions{})
	assert.ErrorIs(t, err, common.ErrNoEngines)
}

func TestGatedExtractCleanLevels(t *testing.T) {
	raw := "items   •   listed\n\n\nmore"
	surya := &fakeEngine{id: constants.EngineSurya, text: raw, confidence: 0.9}
	p := newTestPipeline(&fakeProvider{}, false, surya)

	rawOut, err := p.GatedExtract(context.Background(), []byte("img"), GateOptions{Handwriting: true, CleanLevel: 0})
	require.NoError(t, err)
	assert.Equal(t, raw, rawOut)

	cleaned, err := p.GatedExtract(context.Background(), []byte("img"), GateOptions{Handwriting: true, CleanLevel: 1})
	require.NoError(t, err)
	assert.NotEqual(t, raw, cleaned)
	assert.NotContains(t, cleaned, "•")
}
