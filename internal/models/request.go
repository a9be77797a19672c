// Package models defines data structures shared across the crawl pipeline.
package models

// DefaultMaxConcurrent bounds parallel page fetches when the request
// does not specify its own limit.
const DefaultMaxConcurrent = 10

// CrawlRequest describes one crawl-and-ingest run. It is created by the
// caller and treated as read-only for the lifetime of the orchestration.
type CrawlRequest struct {
	URL           string   `json:"url"`
	KnowledgeType string   `json:"knowledge_type,omitempty"`
	Tags          []string `json:"tags,omitempty"`

	// MaxDepth limits recursive crawling of regular webpages. 1 means
	// only the seed page is fetched.
	MaxDepth int `json:"max_depth,omitempty"`

	// MaxConcurrent bounds the crawl worker pool.
	MaxConcurrent int `json:"max_concurrent,omitempty"`

	// ExtractCodeExamples enables the secondary code-example pass.
	ExtractCodeExamples bool `json:"extract_code_examples"`

	// Provider overrides for the code-example pass. Empty means use the
	// configured defaults.
	Provider          string `json:"provider,omitempty"`
	EmbeddingProvider string `json:"embedding_provider,omitempty"`
}

// NewCrawlRequest returns a request for url with the defaults the
// service layer assumes: single page depth, code extraction on.
func NewCrawlRequest(url string) CrawlRequest {
	return CrawlRequest{
		URL:                 url,
		KnowledgeType:       "technical",
		MaxDepth:            1,
		MaxConcurrent:       DefaultMaxConcurrent,
		ExtractCodeExamples: true,
	}
}

// Concurrency returns the effective worker-pool bound.
func (r CrawlRequest) Concurrency() int {
	if r.MaxConcurrent <= 0 {
		return DefaultMaxConcurrent
	}
	return r.MaxConcurrent
}

// Depth returns the effective recursion depth (minimum 1).
func (r CrawlRequest) Depth() int {
	if r.MaxDepth <= 0 {
		return 1
	}
	return r.MaxDepth
}
