package models

// PageResult is the outcome of fetching a single URL. Pages are produced
// by the crawl stage and consumed once by document processing; they are
// never persisted as-is.
type PageResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"` // markdown
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Links found on the page, absolute URLs.
	Links []string `json:"links,omitempty"`
}

// SuccessfulPages filters pages down to those with usable content.
func SuccessfulPages(pages []PageResult) []PageResult {
	out := make([]PageResult, 0, len(pages))
	for _, p := range pages {
		if p.Success && p.Content != "" {
			out = append(out, p)
		}
	}
	return out
}
