package classify

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ocrpipe/ocrpipe/constants"
)

// Schema for the JSON fast path: some models return the analysis as a JSON
// object instead of labeled lines. Anything that validates is trusted as-is;
// anything else falls through to token parsing.
const analysisSchemaJSON = `{
  "type": "object",
  "properties": {
    "document_type": {"type": "string", "enum": ["print", "handwriting", "mixed", "screenshot", "table_heavy"]},
    "complexity": {"type": "string", "enum": ["low", "medium", "high"]},
    "has_tables": {"type": "boolean"},
    "has_handwriting": {"type": "boolean"},
    "has_signatures": {"type": "boolean"},
    "language": {"type": "string"},
    "recommended_engine": {"type": "string"}
  },
  "required": ["document_type"]
}`

var analysisSchema = jsonschema.MustCompileString("analysis.schema.json", analysisSchemaJSON)

// ParseAnalysis decodes a model's free-text analysis into an Analysis. It is
// a total function: a missing or malformed field takes its default instead of
// failing, and the raw response is always preserved.
func ParseAnalysis(response string) Analysis {
	a := DefaultAnalysis()
	a.RawAnalysis = response

	if j, ok := parseJSONAnalysis(response); ok {
		j.RawAnalysis = response
		return j
	}

	lower := strings.ToLower(response)

	if v, ok := labelValue(lower, "type:"); ok {
		switch {
		case strings.Contains(v, "handwrit"):
			a.DocumentType = constants.DocTypeHandwriting
		case strings.Contains(v, "mixed"):
			a.DocumentType = constants.DocTypeMixed
		case strings.Contains(v, "screen"):
			a.DocumentType = constants.DocTypeScreenshot
		case strings.Contains(v, "table"):
			a.DocumentType = constants.DocTypeTableHeavy
		default:
			a.DocumentType = constants.DocTypePrint
		}
	}

	if v, ok := labelValue(lower, "complexity:"); ok {
		switch {
		case strings.Contains(v, "high"):
			a.Complexity = constants.ComplexityHigh
		case strings.Contains(v, "low"):
			a.Complexity = constants.ComplexityLow
		default:
			a.Complexity = constants.ComplexityMedium
		}
	}

	if v, ok := labelValue(lower, "tables:"); ok {
		a.HasTables = strings.Contains(v, "yes")
	}
	if v, ok := labelValue(lower, "handwriting:"); ok {
		a.HasHandwriting = strings.Contains(v, "yes")
	}
	if v, ok := labelValue(lower, "signatures:"); ok {
		a.HasSignatures = strings.Contains(v, "yes")
	}
	if v, ok := labelValue(lower, "language:"); ok && v != "" {
		a.Language = v
	}
	if v, ok := labelValue(lower, "recommended_engine:"); ok {
		switch {
		case strings.Contains(v, constants.EngineTesseract):
			a.RecommendedEngine = constants.EngineTesseract
		case strings.Contains(v, constants.EngineSurya):
			a.RecommendedEngine = constants.EngineSurya
		case strings.Contains(v, constants.EngineVision):
			a.RecommendedEngine = constants.EngineVision
		}
	}

	return a
}

// labelValue returns the rest of the line after the first occurrence of the
// label token.
func labelValue(lower, label string) (string, bool) {
	idx := strings.Index(lower, label)
	if idx < 0 {
		return "", false
	}
	rest := lower[idx+len(label):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest), true
}

func parseJSONAnalysis(response string) (Analysis, bool) {
	body := strings.TrimSpace(response)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "{") {
		return Analysis{}, false
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return Analysis{}, false
	}
	if err := analysisSchema.Validate(v); err != nil {
		return Analysis{}, false
	}

	var raw struct {
		DocumentType      string `json:"document_type"`
		Complexity        string `json:"complexity"`
		HasTables         bool   `json:"has_tables"`
		HasHandwriting    bool   `json:"has_handwriting"`
		HasSignatures     bool   `json:"has_signatures"`
		Language          string `json:"language"`
		RecommendedEngine string `json:"recommended_engine"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Analysis{}, false
	}

	a := DefaultAnalysis()
	a.DocumentType = constants.DocumentType(raw.DocumentType)
	if raw.Complexity != "" {
		a.Complexity = constants.Complexity(raw.Complexity)
	}
	a.HasTables = raw.HasTables
	a.HasHandwriting = raw.HasHandwriting
	a.HasSignatures = raw.HasSignatures
	if raw.Language != "" {
		a.Language = strings.ToLower(raw.Language)
	}
	if raw.RecommendedEngine != "" {
		a.RecommendedEngine = strings.ToLower(raw.RecommendedEngine)
	}
	return a, true
}
