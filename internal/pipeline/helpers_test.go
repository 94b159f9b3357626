package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/ocrpipe/ocrpipe/internal/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEngine is a scriptable engine for routing tests.
type fakeEngine struct {
	id          string
	unavailable bool
	text        string
	confidence  float64
	err         error
	calls       atomic.Int32
}

func (f *fakeEngine) ID() string { return f.id }

func (f *fakeEngine) Available(ctx context.Context) bool { return !f.unavailable }

func (f *fakeEngine) Process(ctx context.Context, img []byte) (engine.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return engine.Result{}, f.err
	}
	return engine.Result{Text: f.text, Confidence: f.confidence, EngineID: f.id}, nil
}

// fakeProvider is a scriptable vision provider.
type fakeProvider struct {
	response    string
	err         error
	unavailable bool
	model       string
	calls       atomic.Int32
	lastPrompt  string
}

func (p *fakeProvider) Analyze(ctx context.Context, img []byte, prompt string) (string, error) {
	p.calls.Add(1)
	p.lastPrompt = prompt
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func (p *fakeProvider) Available(ctx context.Context) bool { return !p.unavailable }

func (p *fakeProvider) Model() string {
	if p.model == "" {
		return "fake-model"
	}
	return p.model
}

// tinyPNG encodes a small valid image, below any sensible minimum dimension,
// to trigger the local low-quality short circuit.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
