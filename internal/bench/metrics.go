// Package bench drives the pipeline over labeled sample sets and records
// accuracy metrics in an append-only results store.
package bench

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Metrics are the per-sample accuracy numbers. Computed only when a sample
// has ground truth.
type Metrics struct {
	CER      float64
	WER      float64
	Accuracy float64
}

// CharacterErrorRate is edit distance over runes divided by ground truth
// length. An empty ground truth scores 0 against an empty prediction and 1
// against anything else.
func CharacterErrorRate(groundTruth, predicted string) float64 {
	if groundTruth == "" {
		if predicted == "" {
			return 0.0
		}
		return 1.0
	}
	dist := levenshtein.Distance(groundTruth, predicted, nil)
	return float64(dist) / float64(len([]rune(groundTruth)))
}

// WordErrorRate is the same idea at word level: edit distance between the
// whitespace-joined word sequences, divided by the ground truth word count.
func WordErrorRate(groundTruth, predicted string) float64 {
	gtWords := strings.Fields(groundTruth)
	predWords := strings.Fields(predicted)
	if len(gtWords) == 0 {
		if len(predWords) == 0 {
			return 0.0
		}
		return 1.0
	}
	dist := levenshtein.Distance(strings.Join(gtWords, " "), strings.Join(predWords, " "), nil)
	return float64(dist) / float64(len(gtWords))
}

// Calculate computes all metrics at once. Accuracy is 1 - CER.
func Calculate(groundTruth, predicted string) Metrics {
	cer := CharacterErrorRate(groundTruth, predicted)
	return Metrics{
		CER:      cer,
		WER:      WordErrorRate(groundTruth, predicted),
		Accuracy: 1.0 - cer,
	}
}
