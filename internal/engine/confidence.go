package engine

import (
	"strings"
	"unicode"
)

// heuristicConfidence scores decoded text on shape alone: enough words, a
// high clean-character ratio, and plausible word lengths push the score up
// from a 0.2 base. Used when an engine has no native confidence, and blended
// with the native one when it does.
func heuristicConfidence(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	score := 0.2
	if len(words) >= 10 {
		score += 0.2
	}
	if printableRatio(text) >= 0.8 {
		score += 0.15
	}
	if avg := avgWordLen(words); avg >= 3 && avg <= 10 {
		score += 0.15
	}
	if len(text) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func printableRatio(text string) float64 {
	total, ok := 0, 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(`.,;:!?()-'"$%/`, r) {
			ok++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

func avgWordLen(words []string) float64 {
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return float64(total) / float64(len(words))
}
