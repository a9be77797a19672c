// Package config loads environment configuration and sets up logging.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// ParseProvider maps a user-supplied provider name to a known Provider.
// Unknown names return ok=false so callers can fall back to defaults.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderOllama:
		return ProviderOllama, true
	case ProviderOpenAI:
		return ProviderOpenAI, true
	case ProviderAnthropic:
		return ProviderAnthropic, true
	case ProviderBedrock:
		return ProviderBedrock, true
	}
	return "", false
}

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM for code-example summaries
	LLMProvider Provider
	LLMModel    string

	// Embeddings
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int

	// Provider credentials and endpoints
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string

	// Crawling
	MaxConcurrent     int
	HeartbeatInterval time.Duration
	UserAgent         string

	// HTTP server
	ListenAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "crawlkit"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "knowledge"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider: parseProviderEnv("CRAWLKIT_LLM_PROVIDER", ProviderOllama),
		LLMModel:    getEnv("CRAWLKIT_LLM_MODEL", "llama3.2"),

		EmbedProvider:  parseProviderEnv("CRAWLKIT_EMBEDDING_PROVIDER", ProviderOllama),
		EmbedModel:     getEnv("CRAWLKIT_EMBEDDING_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("CRAWLKIT_EMBEDDING_DIMENSION", 384),

		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		MaxConcurrent:     getEnvInt("CRAWLKIT_MAX_CONCURRENT", 10),
		HeartbeatInterval: time.Duration(getEnvInt("CRAWLKIT_HEARTBEAT_SECONDS", 30)) * time.Second,
		UserAgent:         getEnv("CRAWLKIT_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),

		ListenAddr: getEnv("CRAWLKIT_LISTEN_ADDR", ":8765"),

		LogFile:  getEnv("CRAWLKIT_LOG_FILE", "/tmp/crawlkit.log"),
		LogLevel: parseLogLevel(getEnv("CRAWLKIT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseProviderEnv(key string, defaultVal Provider) Provider {
	if p, ok := ParseProvider(os.Getenv(key)); ok {
		return p
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
