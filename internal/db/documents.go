package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/crawlkit/internal/metrics"
	"github.com/raphaelgruber/crawlkit/internal/models"
)

// InsertChunks persists document chunks one at a time and returns the
// identifiers of chunks that failed. A single bad chunk must not sink the
// whole batch, so per-chunk errors are collected rather than returned.
func (c *Client) InsertChunks(ctx context.Context, chunks []models.DocumentChunk) (stored int, failed []string) {
	for _, chunk := range chunks {
		start := time.Now()
		_, err := surrealdb.Query[any](ctx, c.db, `
			CREATE document_chunk SET
				source_id = $source_id,
				url = $url,
				position = $position,
				content = $content,
				heading_path = $heading_path,
				embedding = $embedding
		`, map[string]any{
			"source_id":    chunk.SourceID,
			"url":          chunk.URL,
			"position":     chunk.Position,
			"content":      chunk.Content,
			"heading_path": chunk.HeadingPath,
			"embedding":    chunk.Embedding,
		})
		metrics.Default().RecordTiming(metrics.OpChunkWrite, time.Since(start))
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s#%d", chunk.URL, chunk.Position))
			c.logger.Warn("chunk insert failed",
				"url", chunk.URL, "position", chunk.Position, "error", wrapQueryError(err))
			continue
		}
		stored++
	}
	return stored, failed
}

// DeleteChunksBySource removes all chunks previously stored for a source.
// Called before re-inserting on a re-crawl so chunks never accumulate.
func (c *Client) DeleteChunksBySource(ctx context.Context, sourceID string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE document_chunk WHERE source_id = $source_id
	`, map[string]any{"source_id": sourceID})
	if err != nil {
		return fmt.Errorf("delete chunks for %q: %w", sourceID, wrapQueryError(err))
	}
	return nil
}

// CountChunksBySource returns the number of chunks stored for a source.
func (c *Client) CountChunksBySource(ctx context.Context, sourceID string) (int, error) {
	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, `
		SELECT count() AS count FROM document_chunk WHERE source_id = $source_id GROUP ALL
	`, map[string]any{"source_id": sourceID})
	if err != nil {
		return 0, wrapQueryError(err)
	}
	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}

// InsertCodeExamples persists extracted code examples and returns how many
// were stored. Per-example failures are logged and skipped.
func (c *Client) InsertCodeExamples(ctx context.Context, examples []models.CodeExample) int {
	stored := 0
	for _, ex := range examples {
		_, err := surrealdb.Query[any](ctx, c.db, `
			CREATE code_example SET
				source_id = $source_id,
				url = $url,
				language = $language,
				code = $code,
				summary = $summary,
				embedding = $embedding
		`, map[string]any{
			"source_id": ex.SourceID,
			"url":       ex.URL,
			"language":  ex.Language,
			"code":      ex.Code,
			"summary":   ex.Summary,
			"embedding": ex.Embedding,
		})
		if err != nil {
			c.logger.Warn("code example insert failed",
				"url", ex.URL, "error", wrapQueryError(err))
			continue
		}
		stored++
	}
	return stored
}

// DeleteCodeExamplesBySource removes all code examples for a source.
func (c *Client) DeleteCodeExamplesBySource(ctx context.Context, sourceID string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE code_example WHERE source_id = $source_id
	`, map[string]any{"source_id": sourceID})
	if err != nil {
		return fmt.Errorf("delete code examples for %q: %w", sourceID, wrapQueryError(err))
	}
	return nil
}
