// Package format turns cleaned OCR text into markdown, either with a
// reasoning-model call or a cheap regex pass.
package format

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ocrpipe/ocrpipe/internal/vision"
)

var (
	reSpaces     = regexp.MustCompile(`[ \t]+`)
	reEllipsis   = regexp.MustCompile(`(\. ?){3,}`)
	reBlankRuns  = regexp.MustCompile(`\n{2,}`)
	reListMarker = regexp.MustCompile(`(?m)^[*-]\s+`)
)

const formatPrompt = `Convert this raw OCR text into clean, well-formatted Markdown.

Requirements:
- Preserve all information accurately
- Use proper headings (# ## ###) for titles
- Format lists with proper bullets (-)
- Convert table-like structures into markdown tables
- Fix obvious OCR errors
- Use proper punctuation and spacing

Raw OCR text:
` + "```\n%s\n```" + `

Output ONLY the formatted markdown, no commentary:`

// Formatter renders OCR text as markdown. The model path falls back to the
// regex path on any error, so formatting never fails.
type Formatter struct {
	provider vision.Provider
	logger   *slog.Logger
}

func NewFormatter(provider vision.Provider, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{provider: provider, logger: logger}
}

// Markdown formats text. useModel selects the model path; the regex path is
// used directly when false.
func (f *Formatter) Markdown(ctx context.Context, text string, useModel bool) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if !useModel || f.provider == nil {
		return regexMarkdown(text)
	}
	out, err := f.provider.Analyze(ctx, nil, fmt.Sprintf(formatPrompt, text))
	if err != nil || strings.TrimSpace(out) == "" {
		f.logger.Warn("format.model_error", "error", err)
		return regexMarkdown(text)
	}
	return out
}

func regexMarkdown(text string) string {
	t := reSpaces.ReplaceAllString(text, " ")
	t = reEllipsis.ReplaceAllString(t, "…")
	t = reBlankRuns.ReplaceAllString(t, "\n\n")
	t = reListMarker.ReplaceAllString(t, "- ")
	return strings.TrimSpace(t)
}
