package config

import (
	"log/slog"
	"testing"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Provider
		ok    bool
	}{
		{"ollama", "ollama", ProviderOllama, true},
		{"openai", "openai", ProviderOpenAI, true},
		{"anthropic", "anthropic", ProviderAnthropic, true},
		{"bedrock", "bedrock", ProviderBedrock, true},
		{"mixed case", "OpenAI", ProviderOpenAI, true},
		{"surrounding whitespace", "  ollama ", ProviderOllama, true},
		{"empty", "", "", false},
		{"unknown", "gemini", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProvider(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseProvider(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.SurrealDBURL == "" {
		t.Errorf("SurrealDB URL must default to a non-empty value")
	}
	if cfg.EmbedDimension <= 0 {
		t.Errorf("embedding dimension must be positive, got %d", cfg.EmbedDimension)
	}
	if cfg.HeartbeatInterval <= 0 {
		t.Errorf("heartbeat interval must be positive, got %v", cfg.HeartbeatInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CRAWLKIT_LLM_PROVIDER", "anthropic")
	t.Setenv("CRAWLKIT_EMBEDDING_DIMENSION", "1536")
	t.Setenv("CRAWLKIT_MAX_CONCURRENT", "not-a-number")

	cfg := Load()

	if cfg.LLMProvider != ProviderAnthropic {
		t.Errorf("LLMProvider = %q, want anthropic", cfg.LLMProvider)
	}
	if cfg.EmbedDimension != 1536 {
		t.Errorf("EmbedDimension = %d, want 1536", cfg.EmbedDimension)
	}
	// Unparseable ints keep the default.
	if cfg.MaxConcurrent != 10 {
		t.Errorf("MaxConcurrent = %d, want default 10", cfg.MaxConcurrent)
	}
}
