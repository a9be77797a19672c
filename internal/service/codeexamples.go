package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
)

// CodeExtractor runs the optional code-example stage. Its failures never
// fail the run: the pipeline continues and reports zero examples.
type CodeExtractor struct {
	storage  StorageService
	resolver ProviderResolver
	logger   *slog.Logger
}

// NewCodeExtractor creates a code extractor.
func NewCodeExtractor(storage StorageService, resolver ProviderResolver, logger *slog.Logger) *CodeExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeExtractor{storage: storage, resolver: resolver, logger: logger}
}

// Extract extracts and stores code examples for a completed document
// stage. Returns 0 without touching any collaborator when extraction is
// disabled or the document stage stored nothing. On a runtime error it
// logs, reports the failure in a single code_extraction update and still
// returns 0.
func (e *CodeExtractor) Extract(
	ctx context.Context,
	tracker *progress.Tracker,
	req models.CrawlRequest,
	result *models.StorageResult,
	cancelled func() bool,
) int {
	if !req.ExtractCodeExamples || result.ChunksStored == 0 {
		return 0
	}

	// Provider overrides resolve with fallback-to-default; a nil
	// summarizer just means examples are stored without summaries.
	summarizer := e.resolver.Summarizer(ctx, req.Provider)
	embedder := e.resolver.Embedder(ctx, req.EmbeddingProvider)

	tracker.UpdateMapped(ctx, progress.StageCodeExtraction, 0,
		fmt.Sprintf("extracting code examples from %d pages", result.ProcessedPages), nil)

	count, err := e.storage.ExtractAndStoreCodeExamples(ctx, result.SourceID,
		result.URLToFullDocument, summarizer, embedder, cancelled,
		func(status string, pct int, message string, meta map[string]any) {
			tracker.UpdateMapped(ctx, status, pct, message, meta)
		})
	if err != nil {
		e.logger.Error("code extraction failed",
			"source_id", result.SourceID, "error", err)
		tracker.UpdateMapped(ctx, progress.StageCodeExtraction, 100,
			fmt.Sprintf("code extraction failed: %v", err),
			map[string]any{"code_extraction_error": err.Error()})
		return 0
	}
	return count
}
