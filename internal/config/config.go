package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by RESEARCH_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("RESEARCH_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func DeepSeekAPIKey() string {
	return os.Getenv("DEEPSEEK_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "deepseek" if not set.
// Valid values: deepseek, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "deepseek"
	}
	return p
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "openai" if not set.
// Valid values: openai, mock
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "mock":
		return ""
	default:
		return DeepSeekAPIKey()
	}
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// MaxConcurrent returns the general parallelism cap.
// Defaults to 3 if not set.
func MaxConcurrent() int {
	n, err := strconv.Atoi(os.Getenv("MAX_CONCURRENT"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

// MaxLLMConcurrent returns the cap on in-flight LLM calls.
// Defaults to 2 if not set.
func MaxLLMConcurrent() int {
	n, err := strconv.Atoi(os.Getenv("MAX_LLM_CONCURRENT"))
	if err != nil || n <= 0 {
		return 2
	}
	return n
}

// MaxBrowserConcurrent returns the cap on in-flight browser/search work.
// Defaults to 2 if not set.
func MaxBrowserConcurrent() int {
	n, err := strconv.Atoi(os.Getenv("MAX_BROWSER_CONCURRENT"))
	if err != nil || n <= 0 {
		return 2
	}
	return n
}

// MaxIterations returns the refinement loop cap.
// Defaults to 3 if not set.
func MaxIterations() int {
	n, err := strconv.Atoi(os.Getenv("MAX_ITERATIONS"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

// TargetConfidence returns the confidence at which refinement stops.
// Defaults to 0.8 if not set.
func TargetConfidence() float64 {
	v, err := strconv.ParseFloat(os.Getenv("TARGET_CONFIDENCE"), 64)
	if err != nil || v <= 0 || v > 1 {
		return 0.8
	}
	return v
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
