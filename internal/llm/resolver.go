package llm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/crawlkit/internal/config"
)

// Resolver hands out models and embedders for per-request provider
// overrides. Resolution never fails outward: an unknown or broken
// override falls back to the configured default, and a broken default
// yields nil (callers treat a nil model as a recoverable runtime
// condition). Instances are cached per provider.
type Resolver struct {
	cfg config.Config

	mu        sync.Mutex
	models    map[config.Provider]*Model
	embedders map[config.Provider]*Embedder
}

// NewResolver creates a resolver over the given configuration.
func NewResolver(cfg config.Config) *Resolver {
	return &Resolver{
		cfg:       cfg,
		models:    make(map[config.Provider]*Model),
		embedders: make(map[config.Provider]*Embedder),
	}
}

// Model resolves an LLM for the override name, falling back to the
// configured default provider when the override is unknown or fails to
// initialize.
func (r *Resolver) Model(ctx context.Context, override string) *Model {
	provider := r.cfg.LLMProvider
	if p, ok := config.ParseProvider(override); ok {
		provider = p
	} else if override != "" {
		slog.Warn("unknown LLM provider override, using default", "override", override, "default", provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.models[provider]; ok {
		return m
	}

	m, err := NewModel(r.cfg, provider)
	if err != nil && provider != r.cfg.LLMProvider {
		slog.Warn("LLM provider unavailable, falling back to default",
			"provider", provider, "default", r.cfg.LLMProvider, "error", err)
		provider = r.cfg.LLMProvider
		if cached, ok := r.models[provider]; ok {
			return cached
		}
		m, err = NewModel(r.cfg, provider)
	}
	if err != nil {
		slog.Error("default LLM provider unavailable", "provider", provider, "error", err)
		return nil
	}

	r.models[provider] = m
	return m
}

// Embedder resolves an embedder for the override name with the same
// fallback semantics as Model.
func (r *Resolver) Embedder(ctx context.Context, override string) *Embedder {
	provider := r.cfg.EmbedProvider
	if p, ok := config.ParseProvider(override); ok {
		provider = p
	} else if override != "" {
		slog.Warn("unknown embedding provider override, using default", "override", override, "default", provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.embedders[provider]; ok {
		return e
	}

	e, err := NewEmbedder(ctx, r.cfg, provider)
	if err != nil && provider != r.cfg.EmbedProvider {
		slog.Warn("embedding provider unavailable, falling back to default",
			"provider", provider, "default", r.cfg.EmbedProvider, "error", err)
		provider = r.cfg.EmbedProvider
		if cached, ok := r.embedders[provider]; ok {
			return cached
		}
		e, err = NewEmbedder(ctx, r.cfg, provider)
	}
	if err != nil {
		slog.Error("default embedding provider unavailable", "provider", provider, "error", err)
		return nil
	}

	r.embedders[provider] = e
	return e
}
