package constants

// DocumentType is the canonical classification for a document image.
type DocumentType string

// Stable values (store these exact strings in DB and result metadata).
const (
	DocTypePrint       DocumentType = "print"       // machine-printed text
	DocTypeHandwriting DocumentType = "handwriting" // handwritten notes or text
	DocTypeMixed       DocumentType = "mixed"       // both printed and handwritten
	DocTypeScreenshot  DocumentType = "screenshot"  // screenshot of digital content
	DocTypeTableHeavy  DocumentType = "table_heavy" // dominated by structured tables
	DocTypeLowQuality  DocumentType = "low_quality" // too small or too blurry to classify
	DocTypeUnknown     DocumentType = "unknown"     // treated as print for routing
)

// Complexity is the layout complexity reported by document analysis.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)
