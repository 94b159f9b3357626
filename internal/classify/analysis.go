// Package classify inspects a document image and produces the DocumentAnalysis
// that drives engine routing and fusion prompt construction. Classification
// never fails: every error path degrades to a documented default.
package classify

import "github.com/ocrpipe/ocrpipe/constants"

// Analysis is the per-image classification result. Created once, never
// mutated; consumed by the router and the fusion stage.
type Analysis struct {
	DocumentType      constants.DocumentType
	Complexity        constants.Complexity
	HasTables         bool
	HasHandwriting    bool
	HasSignatures     bool
	Language          string
	RecommendedEngine string
	RawAnalysis       string
}

// DefaultAnalysis is what classification falls back to when the model call
// fails or a field cannot be parsed.
func DefaultAnalysis() Analysis {
	return Analysis{
		DocumentType:      constants.DocTypePrint,
		Complexity:        constants.ComplexityMedium,
		Language:          "english",
		RecommendedEngine: "auto",
	}
}

// lowQualityAnalysis is the short-circuit result from the local heuristics.
func lowQualityAnalysis(reason string) Analysis {
	a := DefaultAnalysis()
	a.DocumentType = constants.DocTypeLowQuality
	a.Complexity = constants.ComplexityLow
	a.RawAnalysis = reason
	return a
}
