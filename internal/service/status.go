package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/raphaelgruber/crawlkit/internal/db"
	"github.com/raphaelgruber/crawlkit/internal/models"
)

// SourceStatusManager writes the durable terminal status of a source.
// Completion is verified with a read-after-write because a source that
// silently stays "in_progress" is worse than a loudly failed one.
type SourceStatusManager struct {
	repo   SourceRepository
	logger *slog.Logger
}

// NewSourceStatusManager creates a status manager.
func NewSourceStatusManager(repo SourceRepository, logger *slog.Logger) *SourceStatusManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceStatusManager{repo: repo, logger: logger}
}

// UpdateToCompleted marks the source completed and verifies the write
// landed. Returns false when the record is absent (nothing written),
// when the write fails, or when the re-read does not show the completed
// status. Summary and word count are preserved: only crawl_status moves.
func (m *SourceStatusManager) UpdateToCompleted(ctx context.Context, sourceID string) bool {
	existing, err := m.repo.GetSourceByID(ctx, sourceID)
	if err != nil || existing == nil {
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			m.logger.Error("status read failed", "source_id", sourceID, "error", err)
		} else {
			m.logger.Warn("cannot complete missing source", "source_id", sourceID)
		}
		return false
	}

	if err := m.repo.UpdateSourceStatus(ctx, sourceID, models.CrawlStatusCompleted); err != nil {
		m.logger.Error("status write failed", "source_id", sourceID, "error", err)
		return false
	}

	verify, err := m.repo.GetSourceByID(ctx, sourceID)
	if err != nil || verify == nil || verify.CrawlStatus != models.CrawlStatusCompleted {
		got := "<missing>"
		if verify != nil {
			got = verify.CrawlStatus
		}
		// The write reported success but the record disagrees. This is an
		// integrity failure in the storage layer, surfaced loudly.
		m.logger.Error("CRITICAL: completed status did not persist",
			"source_id", sourceID, "crawl_status", got, "error", err)
		return false
	}
	return true
}

// UpdateToFailed best-effort marks the source failed. An empty sourceID
// means the pipeline died before one was assigned; nothing to write
// then. No read-after-write verification: the run is already failing
// and this must not add failure modes.
func (m *SourceStatusManager) UpdateToFailed(ctx context.Context, sourceID string) bool {
	if sourceID == "" {
		return false
	}
	if err := m.repo.UpdateSourceStatus(ctx, sourceID, models.CrawlStatusFailed); err != nil {
		m.logger.Warn("failed-status write failed", "source_id", sourceID, "error", err)
		return false
	}
	return true
}
