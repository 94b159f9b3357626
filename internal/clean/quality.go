package clean

import (
	"strings"
	"unicode"
)

// Thresholds are the acceptance gate limits. Confidence is on the canonical
// 0..1 scale.
type Thresholds struct {
	MinWords         int
	MinCleanRatio    float64
	MinAvgConfidence float64
}

const cleanPunct = `.,;:!?()[]{}-_/\'"`

// cleanRatio returns the fraction of characters that are alphanumeric,
// whitespace, or common punctuation.
func cleanRatio(text string) float64 {
	if text == "" {
		return 0
	}
	total, ok := 0, 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(cleanPunct, r) {
			ok++
		}
	}
	return float64(ok) / float64(total)
}

// LooksUnacceptable reports whether an extraction should be rejected. Any
// single failing condition is enough: empty text, too few words, too much
// garbage, or too little confidence. This is a strict gate, not a score.
func LooksUnacceptable(text string, avgConfidence float64, t Thresholds) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	if len(strings.Fields(text)) < t.MinWords {
		return true
	}
	if cleanRatio(text) < t.MinCleanRatio {
		return true
	}
	return avgConfidence < t.MinAvgConfidence
}
