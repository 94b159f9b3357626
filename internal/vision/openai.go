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

const defaultOpenAIModel = "gpt-4o-mini"

// openaiProvider talks to an OpenAI-compatible chat/completions endpoint.
type openaiProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

func newOpenAI(cfg common.VisionConfig, model string, client *http.Client, logger *slog.Logger) *openaiProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openaiProvider{
		baseURL: strings.TrimRight(cfg.OpenAIBase, "/"),
		apiKey:  cfg.OpenAIKey,
		model:   model,
		client:  client,
		logger:  logger,
	}
}

func (p *openaiProvider) Model() string { return p.model }

// Available only checks configuration; the endpoint is remote and metered, so
// no probe request is made.
func (p *openaiProvider) Available(ctx context.Context) bool {
	return p.apiKey != ""
}

func (p *openaiProvider) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	content := []map[string]any{
		{"type": "text", "text": prompt},
	}
	if len(image) > 0 {
		imgURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": imgURL},
		})
	}
	body := map[string]any{
		"model": p.model,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
		"max_tokens": 4096,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	raw, _, err := sendJSON(ctx, p.client, p.baseURL+"/chat/completions", body, headers, p.logger)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
