package models

// StorageResult summarizes one document-processing pass. It is produced
// once by the storage stage and read-only afterwards.
type StorageResult struct {
	SourceID     string `json:"source_id"`
	ChunksStored int    `json:"chunks_stored"`
	ChunkCount   int    `json:"chunk_count"`

	// URLToFullDocument maps each stored page URL to its full markdown,
	// used by code-example extraction for surrounding context.
	URLToFullDocument map[string]string `json:"-"`

	// FailedChunks lists chunk identifiers that could not be persisted.
	FailedChunks []string `json:"failed_chunks,omitempty"`

	ProcessedPages int `json:"processed_pages"`
	TotalPages     int `json:"total_pages"`
	WordCount      int `json:"word_count"`
}
