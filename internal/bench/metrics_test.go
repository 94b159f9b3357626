package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharacterErrorRate(t *testing.T) {
	tests := []struct {
		name        string
		groundTruth string
		predicted   string
		want        float64
	}{
		{"both empty", "", "", 0.0},
		{"empty ground truth", "", "abc", 1.0},
		{"exact match", "abc", "abc", 0.0},
		{"one substitution", "abc", "abd", 1.0 / 3.0},
		{"empty prediction", "abc", "", 1.0},
		{"prediction longer than truth", "ab", "abcdef", 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CharacterErrorRate(tt.groundTruth, tt.predicted), 1e-9)
		})
	}
}

func TestCharacterErrorRateCountsRunes(t *testing.T) {
	// multi-byte characters count once each
	assert.InDelta(t, 0.2, CharacterErrorRate("héllo", "hello"), 1e-9)
	assert.InDelta(t, 0.0, CharacterErrorRate("über", "über"), 1e-9)
}

func TestWordErrorRate(t *testing.T) {
	tests := []struct {
		name        string
		groundTruth string
		predicted   string
		want        float64
	}{
		{"both empty", "", "", 0.0},
		{"empty ground truth", "", "something", 1.0},
		{"exact match", "the quick fox", "the quick fox", 0.0},
		{"whitespace insensitive", "the  quick\nfox", "the quick fox", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WordErrorRate(tt.groundTruth, tt.predicted), 1e-9)
		})
	}
}

func TestCalculateAccuracyIsOneMinusCER(t *testing.T) {
	m := Calculate("abcd", "abcx")
	assert.InDelta(t, 0.25, m.CER, 1e-9)
	assert.InDelta(t, 0.75, m.Accuracy, 1e-9)
}
