package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ocrpipe/ocrpipe/internal/common"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
)

// geminiProvider talks to the Gemini REST generateContent endpoint.
type geminiProvider struct {
	apiKey string
	model  string
	client *http.Client
	logger *slog.Logger
}

func newGemini(cfg common.VisionConfig, model string, client *http.Client, logger *slog.Logger) *geminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiProvider{
		apiKey: cfg.GeminiKey,
		model:  model,
		client: client,
		logger: logger,
	}
}

func (p *geminiProvider) Model() string { return p.model }

func (p *geminiProvider) Available(ctx context.Context) bool {
	return p.apiKey != ""
}

func (p *geminiProvider) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	parts := []map[string]any{
		{"text": prompt},
	}
	if len(image) > 0 {
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": "image/png",
				"data":      base64.StdEncoding.EncodeToString(image),
			},
		})
	}
	body := map[string]any{
		"contents":         []map[string]any{{"parts": parts}},
		"generationConfig": map[string]any{"temperature": 0.1},
	}
	url := fmt.Sprintf("%s/%s:generateContent", geminiBaseURL, p.model)
	headers := map[string]string{"x-goog-api-key": p.apiKey}
	raw, _, err := sendJSON(ctx, p.client, url, body, headers, p.logger)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}
	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
