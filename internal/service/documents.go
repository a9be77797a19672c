package service

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
)

// relayMinDelta is the smallest progress advance the relay forwards.
// Storage reports per page, which on large sitemaps means hundreds of
// near-identical updates; observers only need the shape of the curve.
const relayMinDelta = 5

// newRelay wraps a tracker in a rate-limited progress.Func. An update is
// forwarded when the status changes, at 0 and 100, or when local
// progress advanced at least relayMinDelta points since the last
// forwarded value.
func newRelay(ctx context.Context, tracker *progress.Tracker) progress.Func {
	lastStatus := ""
	lastPct := -1
	return func(status string, pct int, message string, meta map[string]any) {
		forward := status != lastStatus || pct == 0 || pct == 100 || pct-lastPct >= relayMinDelta
		if !forward {
			return
		}
		lastStatus = status
		lastPct = pct
		tracker.UpdateMapped(ctx, status, pct, message, meta)
	}
}

// DocumentProcessor runs the chunk/embed/persist stage and verifies its
// outcome.
type DocumentProcessor struct {
	storage StorageService
	logger  *slog.Logger
}

// NewDocumentProcessor creates a document processor.
func NewDocumentProcessor(storage StorageService, logger *slog.Logger) *DocumentProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentProcessor{storage: storage, logger: logger}
}

// Process delegates to the storage collaborator with a rate-limited
// progress relay and runs the integrity check on the result: chunks
// produced but none stored means the persistence layer failed silently,
// which must fail the run.
func (p *DocumentProcessor) Process(
	ctx context.Context,
	tracker *progress.Tracker,
	req models.CrawlRequest,
	sourceID string,
	pages []models.PageResult,
	cancelled func() bool,
) (*models.StorageResult, error) {
	result, err := p.storage.ProcessAndStoreDocuments(ctx, req, sourceID, pages, cancelled, newRelay(ctx, tracker))
	if err != nil {
		return nil, err
	}

	if result.ChunkCount > 0 && result.ChunksStored == 0 {
		p.logger.Error("no chunks persisted despite processed content",
			"source_id", sourceID,
			"chunk_count", result.ChunkCount)
		return nil, &StorageIntegrityError{
			ChunkCount:   result.ChunkCount,
			ChunksStored: result.ChunksStored,
		}
	}
	return result, nil
}
