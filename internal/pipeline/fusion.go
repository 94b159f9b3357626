package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ocrpipe/ocrpipe/internal/classify"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/vision"
)

// previewLimit bounds each engine text embedded in the fusion prompt, to
// respect model context limits.
const previewLimit = 2000

// Fuser reconciles engine outputs against the image using the reasoning
// model. A fusion failure is fatal to the pipeline: the caller decides
// whether to fall back to raw engine text.
type Fuser struct {
	provider        vision.Provider
	factory         *vision.Factory
	perfectTables   bool
	upgradeProvider string
	logger          *slog.Logger
}

func NewFuser(provider vision.Provider, factory *vision.Factory, perfectTables bool, upgradeProvider string, logger *slog.Logger) *Fuser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fuser{
		provider:        provider,
		factory:         factory,
		perfectTables:   perfectTables,
		upgradeProvider: upgradeProvider,
		logger:          logger,
	}
}

// Fuse sends the image plus both engine texts to the reasoning model and
// returns the reconciled, structured output.
func (f *Fuser) Fuse(ctx context.Context, image []byte, dual DualResult, analysis classify.Analysis) (string, error) {
	start := time.Now()
	prompt := buildFusionPrompt(dual, analysis)

	provider := f.pickProvider(ctx, analysis)
	fused, err := provider.Analyze(ctx, image, prompt)
	if err != nil {
		return "", fmt.Errorf("fuse with %s: %v: %w", provider.Model(), err, common.ErrFusionFailed)
	}

	f.logger.Info("fusion.ok",
		"model", provider.Model(),
		"chars", len(fused),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fused, nil
}

// Correct is the single-engine variant: one raw OCR text, corrected and
// structured against the image.
func (f *Fuser) Correct(ctx context.Context, image []byte, ocrText string, analysis classify.Analysis, engineUsed string) (string, error) {
	start := time.Now()
	prompt := buildCorrectionPrompt(ocrText, analysis, engineUsed)

	corrected, err := f.provider.Analyze(ctx, image, prompt)
	if err != nil {
		return "", fmt.Errorf("correct with %s: %v: %w", f.provider.Model(), err, common.ErrFusionFailed)
	}

	f.logger.Info("fusion.correct.ok",
		"model", f.provider.Model(),
		"chars", len(corrected),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return corrected, nil
}

// pickProvider applies the perfect-tables upgrade: for table documents, one
// fusion call goes to the higher-capability provider when it is reachable,
// with graceful fallback to the configured one.
func (f *Fuser) pickProvider(ctx context.Context, analysis classify.Analysis) vision.Provider {
	if !f.perfectTables || !analysis.HasTables || f.factory == nil {
		return f.provider
	}
	upgraded, err := f.factory.New(f.upgradeProvider, "")
	if err != nil || !upgraded.Available(ctx) {
		f.logger.Warn("fusion.upgrade_unavailable", "provider", f.upgradeProvider)
		return f.provider
	}
	f.logger.Info("fusion.upgrade", "provider", f.upgradeProvider)
	return upgraded
}

// preview truncates on a rune boundary so the prompt never carries a split
// multi-byte character.
func preview(text string) string {
	if len(text) <= previewLimit {
		return text
	}
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func buildFusionPrompt(dual DualResult, analysis classify.Analysis) string {
	secondary := ""
	if dual.Secondary != nil {
		secondary = *dual.Secondary
	}

	var comparison string
	if dual.Primary != nil {
		comparison = fmt.Sprintf(`**Tesseract Output** (fast, good for printed text):
`+"```\n%s\n```"+`

**Surya Output** (thorough, good for handwriting):
`+"```\n%s\n```", preview(*dual.Primary), preview(secondary))
	} else {
		comparison = fmt.Sprintf("**Surya Output** (only engine available):\n```\n%s\n```", preview(secondary))
	}

	tableRule := "Use proper lists and structure"
	if analysis.HasTables {
		tableRule = "CRITICAL: Tables MUST use markdown | separators and be properly aligned"
	}

	return fmt.Sprintf(`You are an expert OCR correction specialist with perfect vision. You have the ORIGINAL IMAGE and the OCR outputs below.

**CRITICAL: The IMAGE is your ground truth - not the OCR outputs!**

**Document Type:** %s | **Complexity:** %s | **Has Tables:** %t | **Has Handwriting:** %t

%s

**STEP-BY-STEP PROCESS:**

**Step 1: IDENTIFY DISAGREEMENTS**
- Compare the outputs line by line
- Mark every word/number where they differ
- Common disagreements: addresses, dates, numbers, similar-looking characters

**Step 2: RESOLVE USING THE IMAGE**
When OCR outputs disagree, look VERY CAREFULLY at the image:
- "1" vs "4" vs "l": look at shape - straight (1) or open (4)?
- "0" vs "O": numbers have consistent size, letters vary
- "5" vs "S": is it in a number or a word?
- "8" vs "B": numbers in addresses/dates, letters in words
- "6" vs "G": check context and font
- "2" vs "Z": numbers are rounded, Z is angular
Example: if one output says "4961" and the other "1961", look at the first
digit in the IMAGE and choose the one that matches it.

**Step 3: USE THE RIGHT ENGINE PER SECTION**
- PRINTED text (receipts, forms, typed text): prefer the Tesseract reading
- HANDWRITTEN (signatures, notes, filled forms): prefer the Surya reading
- TABLES: compare both carefully, use whichever preserves structure
- NUMBERS: double-check against the image if they disagree

**Step 4: FORMAT AS CLEAN MARKDOWN**
- Use proper heading levels (# ## ###)
- %s
- Preserve document hierarchy and layout
- Don't add or remove information

Output ONLY the corrected markdown. No commentary, no explanations, just the final text.`,
		analysis.DocumentType, analysis.Complexity, analysis.HasTables, analysis.HasHandwriting,
		comparison, tableRule)
}

func buildCorrectionPrompt(ocrText string, analysis classify.Analysis, engineUsed string) string {
	var special []string
	if analysis.HasTables {
		special = append(special, "- CRITICAL: This document has TABLES. Examine each table cell carefully in the image and create accurate markdown tables with | separators.")
	}
	if analysis.HasHandwriting {
		special = append(special, "- This document has handwriting. Use the image to correct OCR mistakes in handwritten portions.")
	}
	if analysis.Complexity != "low" {
		special = append(special, "- Pay extra attention to layout, structure, and preserving all information accurately.")
	}

	return fmt.Sprintf(`You are an expert OCR correction specialist. You can see both the original document image and the raw OCR text.

**Document Analysis:**
- Type: %s
- Complexity: %s
- Has tables: %t
- Has handwriting: %t
- OCR engine used: %s

**Raw OCR Output:**
`+"```\n%s\n```"+`

**Your Task:**
1. Look carefully at the image and compare it to the OCR text character by character.
2. Correct OCR errors: misread characters, garbled words, number transpositions, punctuation.
3. Structure the content into clean markdown: headings, lists, tables, preserving the document hierarchy.
4. Do not add or remove information.

%s

Output ONLY the corrected, formatted markdown. No explanations or commentary.`,
		analysis.DocumentType, analysis.Complexity, analysis.HasTables, analysis.HasHandwriting,
		engineUsed, preview(ocrText), strings.Join(special, "\n"))
}
