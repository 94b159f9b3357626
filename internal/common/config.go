package common

import (
	"os"
	"strconv"
	"time"

	"github.com/ocrpipe/ocrpipe/constants"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Engines   EngineConfig
	Vision    VisionConfig
	Quality   QualityConfig
	Classify  ClassifyConfig
	Pipeline  PipelineConfig
	Benchmark BenchmarkConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddr string
}

// StoreConfig holds benchmark result store configuration.
type StoreConfig struct {
	// DSN selects the driver: postgres:// uses pgx, anything else is treated
	// as a sqlite path.
	DSN string
}

// EngineConfig holds per-engine configuration.
type EngineConfig struct {
	TesseractLang string
	TessdataDir   string
	SuryaURL      string
	CallTimeout   time.Duration
}

// VisionConfig holds reasoning-model provider configuration.
type VisionConfig struct {
	Provider        string // ollama | openai | gemini
	Model           string // provider-specific model name; empty = provider default
	OllamaHost      string
	OpenAIBase      string
	OpenAIKey       string
	GeminiKey       string
	CallTimeout     time.Duration
	UpgradeProvider string // provider used for the perfect-tables upgrade
}

// QualityConfig holds the acceptance gate thresholds.
type QualityConfig struct {
	MinWords         int
	MinCleanRatio    float64
	MinAvgConfidence float64
}

// ClassifyConfig holds document classification thresholds.
type ClassifyConfig struct {
	MinDimension         int
	BlurVariance         float64
	HandwritingThreshold float64
	TableHeavyThreshold  float64
	LowQualityThreshold  float64
}

// PipelineConfig holds pipeline mode switches.
type PipelineConfig struct {
	UseHybridOCR  bool
	PerfectTables bool
}

// BenchmarkConfig holds benchmark dataset configuration.
type BenchmarkConfig struct {
	DatasetRoot string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":5000"),
		},
		Store: StoreConfig{
			DSN: getEnv("RESULTS_DSN", "./data/test_results.db"),
		},
		Engines: EngineConfig{
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			SuryaURL:      getEnv("SURYA_URL", "http://localhost:8501"),
			CallTimeout:   getEnvAsDuration("CALL_TIMEOUT", 120*time.Second),
		},
		Vision: VisionConfig{
			Provider:        getEnv("VISION_PROVIDER", constants.ProviderOllama),
			Model:           getEnv("VISION_MODEL", ""),
			OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
			OpenAIBase:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			GeminiKey:       getEnv("GEMINI_API_KEY", ""),
			CallTimeout:     getEnvAsDuration("CALL_TIMEOUT", 120*time.Second),
			UpgradeProvider: getEnv("PERFECT_TABLES_PROVIDER", constants.ProviderGemini),
		},
		Quality: QualityConfig{
			MinWords:         getEnvAsInt("MIN_WORDS", 10),
			MinCleanRatio:    getEnvAsFloat("MIN_CLEAN_RATIO", 0.65),
			MinAvgConfidence: getEnvAsFloat("MIN_AVG_CONFIDENCE", 0.6),
		},
		Classify: ClassifyConfig{
			MinDimension:         getEnvAsInt("CLASSIFY_MIN_DIMENSION", 100),
			BlurVariance:         getEnvAsFloat("CLASSIFY_BLUR_VARIANCE", 100.0),
			HandwritingThreshold: getEnvAsFloat("HANDWRITING_THRESHOLD", 0.6),
			TableHeavyThreshold:  getEnvAsFloat("TABLE_HEAVY_THRESHOLD", 0.5),
			LowQualityThreshold:  getEnvAsFloat("LOW_QUALITY_THRESHOLD", 0.4),
		},
		Pipeline: PipelineConfig{
			UseHybridOCR:  getEnvAsBool("USE_HYBRID_OCR", true),
			PerfectTables: getEnvAsBool("PERFECT_TABLES", false),
		},
		Benchmark: BenchmarkConfig{
			DatasetRoot: getEnv("DATASET_ROOT", "./data/test_datasets"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Vision.Provider == constants.ProviderOpenAI && c.Vision.OpenAIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for the openai provider", ErrInvalidInput)
	}
	if c.Vision.Provider == constants.ProviderGemini && c.Vision.GeminiKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required for the gemini provider", ErrInvalidInput)
	}
	if c.Quality.MinCleanRatio < 0 || c.Quality.MinCleanRatio > 1 {
		return NewAppError("CONFIG_ERROR", "MIN_CLEAN_RATIO must be in [0,1]", ErrInvalidInput)
	}
	if c.Quality.MinAvgConfidence < 0 || c.Quality.MinAvgConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "MIN_AVG_CONFIDENCE must be in [0,1]", ErrInvalidInput)
	}
	return nil
}
