package service

import (
	"context"

	"github.com/raphaelgruber/crawlkit/internal/llm"
	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
	"github.com/raphaelgruber/crawlkit/internal/storage"
)

// Crawler is the crawl-stage collaborator. *crawler.Executor satisfies it.
type Crawler interface {
	CrawlByType(ctx context.Context, req models.CrawlRequest, cb progress.Func) ([]models.PageResult, string, error)
}

// StorageService is the document-processing collaborator.
// *storage.Service satisfies it.
type StorageService interface {
	ProcessAndStoreDocuments(ctx context.Context, req models.CrawlRequest, sourceID string,
		pages []models.PageResult, cancelled func() bool, cb progress.Func) (*models.StorageResult, error)
	ExtractAndStoreCodeExamples(ctx context.Context, sourceID string,
		urlToDocument map[string]string, summarizer storage.Summarizer, embedder storage.Embedder,
		cancelled func() bool, cb progress.Func) (int, error)
}

// SourceRepository is the source-record collaborator. *db.Client
// satisfies it.
type SourceRepository interface {
	GetSourceByID(ctx context.Context, sourceID string) (*models.Source, error)
	UpdateSourceStatus(ctx context.Context, sourceID, status string) error
	UpdateSourceInfo(ctx context.Context, sourceID, summary string, wordCount int) error
}

// SourceSummarizer generates a one-paragraph description of a crawled
// origin from sampled page content. *llm.Model satisfies it.
type SourceSummarizer interface {
	SummarizeSource(ctx context.Context, url, sample string) (string, error)
}

// ProviderResolver resolves LLM and embedding providers from request
// overrides. Resolution never fails outward: unknown or broken overrides
// fall back to the configured default, and a nil return simply disables
// the dependent feature.
type ProviderResolver interface {
	Summarizer(ctx context.Context, override string) storage.Summarizer
	SourceSummarizer(ctx context.Context, override string) SourceSummarizer
	Embedder(ctx context.Context, override string) storage.Embedder
}

// llmResolver adapts *llm.Resolver to the ProviderResolver interface.
type llmResolver struct {
	inner *llm.Resolver
}

// NewProviderResolver wraps the concrete resolver for use by the code
// extraction stage.
func NewProviderResolver(r *llm.Resolver) ProviderResolver {
	return &llmResolver{inner: r}
}

func (r *llmResolver) Summarizer(ctx context.Context, override string) storage.Summarizer {
	m := r.inner.Model(ctx, override)
	if m == nil {
		return nil
	}
	return m
}

func (r *llmResolver) SourceSummarizer(ctx context.Context, override string) SourceSummarizer {
	m := r.inner.Model(ctx, override)
	if m == nil {
		return nil
	}
	return m
}

func (r *llmResolver) Embedder(ctx context.Context, override string) storage.Embedder {
	e := r.inner.Embedder(ctx, override)
	if e == nil {
		return nil
	}
	return e
}
