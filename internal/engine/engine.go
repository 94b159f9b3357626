// Package engine defines the extraction engine contract and its closed set of
// variants: tesseract (printed text), surya (handwriting line recognition
// service), and a reasoning model used as an extractor. Routing policy lives
// in internal/pipeline; this package only knows how to run one engine.
package engine

import "context"

// Result is one engine invocation's output. Immutable once created.
// Confidence is on the canonical 0..1 scale; engines that have no native
// confidence synthesize one (see each engine's Process).
type Result struct {
	Text       string
	Confidence float64
	EngineID   string
	Metadata   map[string]any
}

// Engine is the capability contract over any extractor variant. Engines are
// stateless per call and must not share mutable per-call state across
// concurrent invocations; Available is re-checked per use because backing
// services may become unreachable.
type Engine interface {
	ID() string
	Process(ctx context.Context, image []byte) (Result, error)
	Available(ctx context.Context) bool
}
