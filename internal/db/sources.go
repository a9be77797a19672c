package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/crawlkit/internal/metrics"
	"github.com/raphaelgruber/crawlkit/internal/models"
)

// GetSourceByID fetches a source by its derived source_id.
// Returns ErrNotFound when no matching record exists.
func (c *Client) GetSourceByID(ctx context.Context, sourceID string) (*models.Source, error) {
	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		SELECT * FROM source WHERE source_id = $source_id LIMIT 1
	`, map[string]any{"source_id": sourceID})
	if err != nil {
		return nil, wrapQueryError(err)
	}
	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("source %q: %w", sourceID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// UpsertSource creates the source record or updates the existing one,
// keyed by source_id. Tags and knowledge type are only overwritten when
// the incoming value is non-empty so re-crawls keep prior metadata.
func (c *Client) UpsertSource(ctx context.Context, src models.Source) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT source SET
			source_id = $source_id,
			display_name = $display_name,
			url = $url,
			word_count = $word_count,
			crawl_status = $crawl_status,
			knowledge_type = IF $knowledge_type != NONE AND $knowledge_type != '' THEN $knowledge_type ELSE knowledge_type END,
			tags = IF array::len($tags ?? []) > 0 THEN $tags ELSE tags END,
			updated_at = time::now()
		WHERE source_id = $source_id
	`, map[string]any{
		"source_id":      src.SourceID,
		"display_name":   src.DisplayName,
		"url":            src.URL,
		"word_count":     src.WordCount,
		"crawl_status":   src.CrawlStatus,
		"knowledge_type": src.KnowledgeType,
		"tags":           src.Tags,
	})
	if err != nil {
		return fmt.Errorf("upsert source %q: %w", src.SourceID, wrapQueryError(err))
	}
	metrics.Default().RecordTiming(metrics.OpSourceWrite, time.Since(start))
	return nil
}

// UpdateSourceInfo sets the generated summary and final word count.
func (c *Client) UpdateSourceInfo(ctx context.Context, sourceID, summary string, wordCount int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE source SET
			summary = $summary,
			word_count = $word_count,
			updated_at = time::now()
		WHERE source_id = $source_id
	`, map[string]any{
		"source_id":  sourceID,
		"summary":    summary,
		"word_count": wordCount,
	})
	if err != nil {
		return fmt.Errorf("update source info %q: %w", sourceID, wrapQueryError(err))
	}
	return nil
}

// UpdateSourceStatus writes the crawl status for a source.
func (c *Client) UpdateSourceStatus(ctx context.Context, sourceID, status string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE source SET
			crawl_status = $status,
			updated_at = time::now()
		WHERE source_id = $source_id
	`, map[string]any{
		"source_id": sourceID,
		"status":    status,
	})
	if err != nil {
		return fmt.Errorf("update source status %q: %w", sourceID, wrapQueryError(err))
	}
	return nil
}

// ListSources returns all sources ordered by most recently updated.
func (c *Client) ListSources(ctx context.Context) ([]models.Source, error) {
	results, err := surrealdb.Query[[]models.Source](ctx, c.db, `
		SELECT * FROM source ORDER BY updated_at DESC
	`, nil)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// DeleteSource removes a source and all chunks and code examples stored
// under it. Returns the number of chunks deleted.
func (c *Client) DeleteSource(ctx context.Context, sourceID string) (int, error) {
	results, err := surrealdb.Query[[]models.DocumentChunk](ctx, c.db, `
		DELETE source WHERE source_id = $source_id;
		DELETE code_example WHERE source_id = $source_id;
		DELETE document_chunk WHERE source_id = $source_id RETURN BEFORE;
	`, map[string]any{"source_id": sourceID})
	if err != nil {
		return 0, fmt.Errorf("delete source %q: %w", sourceID, wrapQueryError(err))
	}
	deleted := 0
	for _, r := range *results {
		deleted += len(r.Result)
	}
	return deleted, nil
}
