package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Crawl status values for a source record.
const (
	CrawlStatusPending    = "pending"
	CrawlStatusInProgress = "in_progress"
	CrawlStatusCompleted  = "completed"
	CrawlStatusFailed     = "failed"
)

// Source is the persisted record for one crawled origin, distinct from
// the chunks stored beneath it.
type Source struct {
	ID          surrealmodels.RecordID `json:"id"`
	SourceID    string                 `json:"source_id"`
	DisplayName string                 `json:"display_name,omitempty"`
	URL         string                 `json:"url"`
	Summary     string                 `json:"summary,omitempty"`
	WordCount   int                    `json:"word_count"`
	CrawlStatus string                 `json:"crawl_status"`
	KnowledgeType string               `json:"knowledge_type,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	CreatedAt   time.Time              `json:"created_at,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at,omitempty"`
}

// DocumentChunk is one embedded slice of a crawled page.
type DocumentChunk struct {
	ID          surrealmodels.RecordID `json:"id"`
	SourceID    string                 `json:"source_id"`
	URL         string                 `json:"url"`
	Position    int                    `json:"position"`
	Content     string                 `json:"content"`
	HeadingPath string                 `json:"heading_path,omitempty"`
	Embedding   []float32              `json:"embedding"`
	CreatedAt   time.Time              `json:"created_at,omitempty"`
}

// CodeExample is an extracted, summarized code block from a stored page.
type CodeExample struct {
	ID        surrealmodels.RecordID `json:"id"`
	SourceID  string                 `json:"source_id"`
	URL       string                 `json:"url"`
	Language  string                 `json:"language,omitempty"`
	Code      string                 `json:"code"`
	Summary   string                 `json:"summary,omitempty"`
	Embedding []float32              `json:"embedding,omitempty"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}
