package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrpipe/ocrpipe/constants"
)

func TestParseAnalysisLabeledResponse(t *testing.T) {
	response := `TYPE: handwriting
COMPLEXITY: high
TABLES: no
HANDWRITING: yes - throughout the page
SIGNATURES: yes
LANGUAGE: German
RECOMMENDED_ENGINE: surya

The page is a hand-filled form with a signature at the bottom.`

	a := ParseAnalysis(response)
	assert.Equal(t, constants.DocTypeHandwriting, a.DocumentType)
	assert.Equal(t, constants.ComplexityHigh, a.Complexity)
	assert.False(t, a.HasTables)
	assert.True(t, a.HasHandwriting)
	assert.True(t, a.HasSignatures)
	assert.Equal(t, "german", a.Language)
	assert.Equal(t, constants.EngineSurya, a.RecommendedEngine)
	assert.Equal(t, response, a.RawAnalysis)
}

func TestParseAnalysisMissingFieldsDefault(t *testing.T) {
	// Only the type line present: everything else keeps its default.
	a := ParseAnalysis("TYPE: print")
	assert.Equal(t, constants.DocTypePrint, a.DocumentType)
	assert.Equal(t, constants.ComplexityMedium, a.Complexity)
	assert.Equal(t, "english", a.Language)
	assert.False(t, a.HasTables)
	assert.False(t, a.HasHandwriting)
}

func TestParseAnalysisGarbageIsDefault(t *testing.T) {
	a := ParseAnalysis("I am unable to analyze this image.")
	d := DefaultAnalysis()
	assert.Equal(t, d.DocumentType, a.DocumentType)
	assert.Equal(t, d.Complexity, a.Complexity)
	assert.Equal(t, d.RecommendedEngine, a.RecommendedEngine)
	assert.Equal(t, "I am unable to analyze this image.", a.RawAnalysis)
}

func TestParseAnalysisJSONFastPath(t *testing.T) {
	a := ParseAnalysis(`{"document_type": "table_heavy", "has_tables": true, "language": "English"}`)
	assert.Equal(t, constants.DocTypeTableHeavy, a.DocumentType)
	assert.True(t, a.HasTables)
	// complexity omitted in the JSON, so the default holds
	assert.Equal(t, constants.ComplexityMedium, a.Complexity)
	assert.Equal(t, "english", a.Language)
}

func TestParseAnalysisJSONWithFences(t *testing.T) {
	a := ParseAnalysis("```json\n{\"document_type\": \"screenshot\", \"complexity\": \"low\"}\n```")
	assert.Equal(t, constants.DocTypeScreenshot, a.DocumentType)
	assert.Equal(t, constants.ComplexityLow, a.Complexity)
}

func TestParseAnalysisInvalidJSONFallsThrough(t *testing.T) {
	// document_type fails the schema enum, so the token parser handles it.
	a := ParseAnalysis("{\"document_type\": \"banana\"}\ntype: mixed")
	assert.Equal(t, constants.DocTypeMixed, a.DocumentType)
}

func TestParseAnalysisTableVariants(t *testing.T) {
	// The model says "table", we store table_heavy.
	a := ParseAnalysis("TYPE: table")
	require.Equal(t, constants.DocTypeTableHeavy, a.DocumentType)
}

func TestDefaultAnalysis(t *testing.T) {
	d := DefaultAnalysis()
	assert.Equal(t, constants.DocTypePrint, d.DocumentType)
	assert.Equal(t, constants.ComplexityMedium, d.Complexity)
	assert.Equal(t, "english", d.Language)
	assert.Equal(t, "auto", d.RecommendedEngine)
}
