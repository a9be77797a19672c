// Package service orchestrates the crawl pipeline: classify, crawl,
// chunk/embed/store, extract code examples and record terminal status.
package service

import (
	"errors"
	"fmt"
)

// ErrNoContent is returned when a crawl produced zero usable pages.
// Terminal, never retried.
var ErrNoContent = errors.New("no content was crawled")

// StorageIntegrityError reports that document processing produced chunks
// but none were persisted. This signals a broken storage collaborator,
// not bad input, so it fails the run rather than being absorbed into
// the per-chunk failure list.
type StorageIntegrityError struct {
	ChunkCount   int
	ChunksStored int
}

func (e *StorageIntegrityError) Error() string {
	return fmt.Sprintf("storage integrity failure: %d chunks processed but %d stored",
		e.ChunkCount, e.ChunksStored)
}
