// Package llm provides LLM and embedding services using langchaingo,
// plus provider resolution with fallback for per-request overrides.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/crawlkit/internal/config"
	"github.com/raphaelgruber/crawlkit/internal/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	provider  config.Provider
	modelName string
}

// NewModel creates an LLM model for the given provider.
func NewModel(cfg config.Config, provider config.Provider) (*Model, error) {
	var model llms.Model
	var err error

	switch provider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return &Model{
		llm:       model,
		provider:  provider,
		modelName: cfg.LLMModel,
	}, nil
}

// Provider returns the backing provider.
func (m *Model) Provider() config.Provider { return m.provider }

// Model returns the model name.
func (m *Model) Model() string { return m.modelName }

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", err)
	}
	metrics.Default().RecordTiming(metrics.OpLLMGenerate, time.Since(start))
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return response.Choices[0].Content, nil
}

// SummarizeCodeExample produces a short searchable summary for an
// extracted code block given its surrounding context.
func (m *Model) SummarizeCodeExample(ctx context.Context, language, code, surrounding string) (string, error) {
	systemPrompt := `You are a technical documentation assistant. Summarize the given code example in 2-3 sentences.
Describe what the code does and when a developer would use it. Do not repeat the code itself.`

	userPrompt := fmt.Sprintf(`Surrounding documentation:
%s

Code (%s):
%s

Summary:`, surrounding, language, code)

	return m.GenerateWithSystem(ctx, systemPrompt, userPrompt)
}

// SummarizeSource produces a one-paragraph description of a crawled
// origin from sampled page content.
func (m *Model) SummarizeSource(ctx context.Context, url, sample string) (string, error) {
	systemPrompt := `You are a technical librarian. Write a single short paragraph describing what this documentation source covers.`

	userPrompt := fmt.Sprintf(`Source URL: %s

Sampled content:
%s

Description:`, url, sample)

	return m.GenerateWithSystem(ctx, systemPrompt, userPrompt)
}
