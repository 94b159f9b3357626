// Package clean implements line-level cleanup of raw OCR text and the
// acceptance gate that decides whether an extraction is usable.
package clean

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reSpacePunct  = regexp.MustCompile(`\s+([.,;:!?])`)
	reMultiSpace  = regexp.MustCompile(`[ \t]{2,}`)
	reMultiBlank  = regexp.MustCompile(`\n{3,}`)
	reAlphaRun    = regexp.MustCompile(`[A-Za-z]{3,}`)
	reAllowListed = regexp.MustCompile(`(?i)^\s*(x\.?|note)\s*$`)
)

// symbolReplacer maps visually-equivalent symbol variants to a canonical set.
var symbolReplacer = strings.NewReplacer(
	"·", ".",
	"•", ".",
	"×", "x",
	"–", "-",
	"—", "-",
)

// Thresholds for the drop filters. Handwritten lines are short and noisy, so
// handwriting mode only applies the (looser) symbol-ratio filter.
const (
	symbolRatioDefault     = 0.55
	symbolRatioHandwriting = 0.65
	digitRatioThreshold    = 0.60
	minLetters             = 3
)

// allowListed reports whether the trimmed line is one of the short tokens
// ("x", "x.", "note", case-insensitive) that always survive verbatim.
func allowListed(line string) bool {
	return reAllowListed.MatchString(line)
}

// symbolRatio returns the fraction of characters that are neither
// alphanumeric nor whitespace. Empty lines count as all-symbol.
func symbolRatio(line string) float64 {
	if line == "" {
		return 1.0
	}
	total, symbols := 0, 0
	for _, r := range line {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			symbols++
		}
	}
	return float64(symbols) / float64(total)
}

// mostlySymbols reports whether the line is at least thresh non-alphanumeric.
func mostlySymbols(line string, thresh float64) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return symbolRatio(line) >= thresh
}

// mostlyDigits reports whether at least 60% of the non-space characters are
// digits (e.g. "18", "74.").
func mostlyDigits(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return true
	}
	total, digits := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return true
	}
	return float64(digits)/float64(total) >= digitRatioThreshold
}

// fewLetters reports whether the line has fewer than 3 alphabetic characters.
func fewLetters(line string) bool {
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if letters >= minLetters {
				return false
			}
		}
	}
	return true
}

// hasAlphaRun reports whether the line contains an alphabetic run of length >= 3.
func hasAlphaRun(line string) bool {
	return reAlphaRun.MatchString(line)
}

// collapsePunct squeezes runs of the same punctuation character ("!!!" -> "!").
// RE2 has no backreferences, so this is done by hand.
func collapsePunct(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	var prev rune
	for _, r := range line {
		if r == prev && strings.ContainsRune(".,;:!?", r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Normalize cleans raw OCR text line by line: canonicalizes symbol variants,
// collapses repeated punctuation and whitespace, drops noise lines, and
// squeezes excess blank lines. Allow-listed tokens are checked against the
// raw line, before any rewriting, and survive unchanged.
//
// Normalize is idempotent: each line is fully rewritten to its canonical form
// before the drop filters judge it, so a second pass sees the same ratios.
func Normalize(raw string, aggressive, handwriting bool) string {
	if raw == "" {
		return ""
	}
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if allowListed(trimmed) {
			out = append(out, trimmed)
			continue
		}
		line = symbolReplacer.Replace(line)
		line = reSpacePunct.ReplaceAllString(line, "$1")
		line = collapsePunct(line)
		line = strings.TrimSpace(reMultiSpace.ReplaceAllString(line, " "))

		switch {
		case handwriting:
			if mostlySymbols(line, symbolRatioHandwriting) {
				continue
			}
		case aggressive:
			if !hasAlphaRun(line) {
				continue
			}
		default:
			if mostlySymbols(line, symbolRatioDefault) || mostlyDigits(line) || fewLetters(line) {
				continue
			}
		}
		out = append(out, line)
	}
	text := strings.Join(out, "\n")
	text = reMultiBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
