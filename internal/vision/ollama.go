package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ocrpipe/ocrpipe/internal/common"
)

const defaultOllamaModel = "qwen2.5vl:7b"

// ollamaProvider talks to a local Ollama daemon via /api/generate.
type ollamaProvider struct {
	host   string
	model  string
	client *http.Client
	logger *slog.Logger
}

func newOllama(cfg common.VisionConfig, model string, client *http.Client, logger *slog.Logger) *ollamaProvider {
	if model == "" {
		model = defaultOllamaModel
	}
	return &ollamaProvider{
		host:   strings.TrimRight(cfg.OllamaHost, "/"),
		model:  model,
		client: client,
		logger: logger,
	}
}

func (p *ollamaProvider) Model() string { return p.model }

func (p *ollamaProvider) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode/100 == 2
}

func (p *ollamaProvider) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	start := time.Now()
	body := map[string]any{
		"model":  p.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.1,
			"num_ctx":     4096,
		},
	}
	// text-only calls (e.g. markdown formatting) carry no image
	if len(image) > 0 {
		body["images"] = []string{base64.StdEncoding.EncodeToString(image)}
	}
	raw, _, err := sendJSON(ctx, p.client, p.host+"/api/generate", body, nil, p.logger)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	p.logger.Debug("vision.ollama.ok", "model", p.model, "elapsed_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(out.Response), nil
}
