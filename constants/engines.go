package constants

// Engine identifiers. These are the only extraction backends the router knows.
const (
	EngineTesseract = "tesseract" // fast, printed text
	EngineSurya     = "surya"     // line recognition service, handwriting
	EngineVision    = "vision"    // reasoning model used as an extractor
)

// Vision provider names accepted by the provider factory.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Standard benchmark dataset names.
var DatasetNames = []string{
	"handwriting",
	"print",
	"tables",
	"mixed",
	"screenshots",
	"edge_cases",
}
