// Package vision holds the reasoning-model providers used for document
// analysis, fusion, and markdown formatting. A provider is a thin client over
// one vision-capable model API; all prompt construction lives with callers.
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/common"
)

// Provider is the contract consumed by the pipeline.
type Provider interface {
	// Analyze sends the image and prompt to the model and returns its text
	// response.
	Analyze(ctx context.Context, image []byte, prompt string) (string, error)
	// Available reports whether the backing service is reachable/configured.
	// Backing services can come and go, so this is re-checked per use.
	Available(ctx context.Context) bool
	// Model returns the model name in use, for logging and provenance.
	Model() string
}

// Factory constructs providers by name.
type Factory struct {
	cfg    common.VisionConfig
	client *http.Client
	logger *slog.Logger
}

func NewFactory(cfg common.VisionConfig, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Factory{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// New returns the named provider. Unknown names are an error; availability is
// the caller's concern.
func (f *Factory) New(name, model string) (Provider, error) {
	switch name {
	case constants.ProviderOllama:
		return newOllama(f.cfg, model, f.client, f.logger), nil
	case constants.ProviderOpenAI:
		return newOpenAI(f.cfg, model, f.client, f.logger), nil
	case constants.ProviderGemini:
		return newGemini(f.cfg, model, f.client, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q: %w", name, common.ErrInvalidInput)
	}
}

// NewDefault returns the configured provider, falling back to ollama when the
// configured one is not available.
func (f *Factory) NewDefault(ctx context.Context) (Provider, error) {
	p, err := f.New(f.cfg.Provider, f.cfg.Model)
	if err != nil {
		return nil, err
	}
	if !p.Available(ctx) && f.cfg.Provider != constants.ProviderOllama {
		f.logger.Warn("vision.provider.unavailable",
			"provider", f.cfg.Provider,
			"fallback", constants.ProviderOllama,
		)
		return f.New(constants.ProviderOllama, "")
	}
	return p, nil
}
