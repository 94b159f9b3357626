package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ocrpipe/ocrpipe/constants"
	"github.com/ocrpipe/ocrpipe/internal/common"
)

// suryaConfidence is the synthetic confidence for non-empty output. The
// recognition service reports no per-line confidence.
const suryaConfidence = 0.8

// Surya is the handwriting-specialized engine. Recognition runs in a separate
// service (the models are Python-side); this is its HTTP client.
type Surya struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewSurya(cfg common.EngineConfig, logger *slog.Logger) *Surya {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Surya{
		baseURL: strings.TrimRight(cfg.SuryaURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (s *Surya) ID() string { return constants.EngineSurya }

func (s *Surya) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode/100 == 2
}

func (s *Surya) Process(ctx context.Context, image []byte) (Result, error) {
	start := time.Now()

	body, err := json.Marshal(map[string]any{
		"image": base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode surya request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/recognize", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build surya request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("surya: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			s.logger.Warn("engine.surya.response_body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return Result{}, fmt.Errorf("surya status %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("decode surya response: %w", err)
	}

	var kept []string
	for _, ln := range out.Lines {
		if ln != "" {
			kept = append(kept, ln)
		}
	}
	text := strings.Join(kept, "\n")

	conf := 0.0
	if strings.TrimSpace(text) != "" {
		conf = suryaConfidence
	}

	s.logger.Debug("engine.surya.ok",
		"lines", len(kept),
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Text:       text,
		Confidence: conf,
		EngineID:   s.ID(),
		Metadata:   map[string]any{"lines_detected": len(kept)},
	}, nil
}
