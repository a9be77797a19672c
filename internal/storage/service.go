// Package storage turns crawled pages into persisted, embedded document
// chunks and code examples.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/parser"
	"github.com/raphaelgruber/crawlkit/internal/progress"
)

// Database is the persistence surface the storage service needs.
// *db.Client satisfies it.
type Database interface {
	UpsertSource(ctx context.Context, src models.Source) error
	DeleteChunksBySource(ctx context.Context, sourceID string) error
	InsertChunks(ctx context.Context, chunks []models.DocumentChunk) (stored int, failed []string)
	DeleteCodeExamplesBySource(ctx context.Context, sourceID string) error
	InsertCodeExamples(ctx context.Context, examples []models.CodeExample) int
}

// Embedder produces embedding vectors for a batch of texts.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Summarizer generates a short natural-language summary for one code
// block given its surrounding text.
type Summarizer interface {
	SummarizeCodeExample(ctx context.Context, language, code, surrounding string) (string, error)
}

// minCodeBlockLength filters out trivial snippets before summarization.
const minCodeBlockLength = 250

// Service chunks, embeds and persists crawled content.
type Service struct {
	db       Database
	embedder Embedder
	chunkCfg parser.ChunkConfig
	logger   *slog.Logger
}

// NewService creates a storage service with default chunking parameters.
func NewService(database Database, embedder Embedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       database,
		embedder: embedder,
		chunkCfg: parser.DefaultChunkConfig(),
		logger:   logger,
	}
}

// ProcessAndStoreDocuments chunks and embeds each successfully crawled
// page and persists the chunks under sourceID. Previously stored chunks
// for the source are removed first so re-crawls replace rather than
// accumulate. The cancelled callback is checked between pages; when it
// reports true the method stops and returns models.ErrCancelled.
//
// Per-page failures (embedding or insert errors) are recorded in the
// result, not returned: one bad page must not fail the run.
func (s *Service) ProcessAndStoreDocuments(
	ctx context.Context,
	req models.CrawlRequest,
	sourceID string,
	pages []models.PageResult,
	cancelled func() bool,
	cb progress.Func,
) (*models.StorageResult, error) {
	usable := models.SuccessfulPages(pages)

	result := &models.StorageResult{
		SourceID:          sourceID,
		TotalPages:        len(usable),
		URLToFullDocument: make(map[string]string, len(usable)),
	}

	// Record the source as in progress before any chunk lands so a crash
	// mid-storage leaves an honest status behind.
	src := models.Source{
		SourceID:      sourceID,
		DisplayName:   displayNameForURL(req.URL),
		URL:           req.URL,
		CrawlStatus:   models.CrawlStatusInProgress,
		KnowledgeType: req.KnowledgeType,
		Tags:          req.Tags,
	}
	if err := s.db.UpsertSource(ctx, src); err != nil {
		return nil, fmt.Errorf("register source: %w", err)
	}

	if err := s.db.DeleteChunksBySource(ctx, sourceID); err != nil {
		return nil, fmt.Errorf("clear previous chunks: %w", err)
	}

	for i, page := range usable {
		if cancelled != nil && cancelled() {
			return result, models.ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %v", models.ErrCancelled, err)
		}

		stored, failed, words := s.storePage(ctx, sourceID, page)
		result.ChunksStored += stored
		result.FailedChunks = append(result.FailedChunks, failed...)
		result.ChunkCount += stored + len(failed)
		result.WordCount += words
		result.ProcessedPages++
		result.URLToFullDocument[page.URL] = page.Content

		if cb != nil {
			cb(progress.StageDocumentStorage,
				(i+1)*100/len(usable),
				fmt.Sprintf("stored %d/%d pages", i+1, len(usable)),
				map[string]any{
					"chunks_stored": result.ChunksStored,
					"total_pages":   result.TotalPages,
				})
		}
	}

	s.logger.Info("document storage complete",
		"source_id", sourceID,
		"pages", result.ProcessedPages,
		"chunks_stored", result.ChunksStored,
		"chunks_failed", len(result.FailedChunks),
		"words", result.WordCount)
	return result, nil
}

// storePage chunks and embeds one page and inserts the chunks. Returns
// the number stored, identifiers of failed chunks and the page word
// count.
func (s *Service) storePage(ctx context.Context, sourceID string, page models.PageResult) (int, []string, int) {
	doc := parser.Parse(page.Content)
	chunks := parser.ChunkDocument(doc, s.chunkCfg)
	if len(chunks) == 0 {
		return 0, nil, 0
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(embeddings) != len(chunks) {
		// Whole page fails when its batch cannot be embedded.
		s.logger.Warn("embedding failed for page", "url", page.URL, "error", err)
		failed := make([]string, len(chunks))
		for i := range chunks {
			failed[i] = fmt.Sprintf("%s#%d", page.URL, chunks[i].Position)
		}
		return 0, failed, 0
	}

	records := make([]models.DocumentChunk, len(chunks))
	for i, c := range chunks {
		records[i] = models.DocumentChunk{
			SourceID:    sourceID,
			URL:         page.URL,
			Position:    c.Position,
			Content:     c.Content,
			HeadingPath: c.HeadingPath,
			Embedding:   embeddings[i],
		}
	}

	stored, failed := s.db.InsertChunks(ctx, records)
	return stored, failed, parser.WordCount(page.Content)
}

// ExtractAndStoreCodeExamples finds code blocks in the stored documents,
// summarizes each with the given model, embeds the summaries and
// persists them. Returns the number of examples stored. A nil embedder
// falls back to the service's default one, so per-request provider
// overrides only need to be passed when they differ.
//
// Summarization failures degrade to an empty summary and embedding
// failures to a nil vector; neither drops the example.
func (s *Service) ExtractAndStoreCodeExamples(
	ctx context.Context,
	sourceID string,
	urlToDocument map[string]string,
	summarizer Summarizer,
	embedder Embedder,
	cancelled func() bool,
	cb progress.Func,
) (int, error) {
	if embedder == nil {
		embedder = s.embedder
	}
	if err := s.db.DeleteCodeExamplesBySource(ctx, sourceID); err != nil {
		return 0, fmt.Errorf("clear previous code examples: %w", err)
	}

	var examples []models.CodeExample
	for pageURL, content := range urlToDocument {
		for _, block := range parser.ExtractCodeBlocks(content, minCodeBlockLength) {
			examples = append(examples, models.CodeExample{
				SourceID: sourceID,
				URL:      pageURL,
				Language: block.Language,
				Code:     block.Code,
				Summary:  s.summarize(ctx, summarizer, block),
			})
		}
		if cancelled != nil && cancelled() {
			return 0, models.ErrCancelled
		}
	}
	if len(examples) == 0 {
		return 0, nil
	}

	// Embed the summaries (falling back to the code itself) as one batch.
	texts := make([]string, len(examples))
	for i, ex := range examples {
		if ex.Summary != "" {
			texts[i] = ex.Summary
		} else {
			texts[i] = ex.Code
		}
	}
	embeddings, err := embedder.EmbedBatch(ctx, texts)
	if err == nil && len(embeddings) == len(examples) {
		for i := range examples {
			examples[i].Embedding = embeddings[i]
		}
	} else {
		s.logger.Warn("code example embedding failed, storing without vectors",
			"source_id", sourceID, "error", err)
	}

	stored := s.db.InsertCodeExamples(ctx, examples)
	if cb != nil {
		cb(progress.StageCodeExtraction, 100,
			fmt.Sprintf("stored %d code examples", stored),
			map[string]any{"code_examples": stored})
	}
	s.logger.Info("code extraction complete",
		"source_id", sourceID, "examples", stored)
	return stored, nil
}

func (s *Service) summarize(ctx context.Context, summarizer Summarizer, block parser.CodeBlock) string {
	if summarizer == nil {
		return ""
	}
	summary, err := summarizer.SummarizeCodeExample(ctx, block.Language, block.Code, block.Context)
	if err != nil {
		s.logger.Warn("code example summarization failed", "error", err)
		return ""
	}
	return summary
}

// displayNameForURL derives a human-readable name from the request URL,
// falling back to the raw string when it does not parse.
func displayNameForURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
