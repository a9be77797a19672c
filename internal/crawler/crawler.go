package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raphaelgruber/crawlkit/internal/metrics"
	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
)

const maxBodySize = 10 << 20 // 10 MiB per page

// HTTPCrawler implements the crawl strategies over net/http.
type HTTPCrawler struct {
	client    *http.Client
	userAgent string
}

// New creates a crawler. An empty userAgent falls back to a browser
// string; many sites reject the default Go client UA.
func New(userAgent string) *HTTPCrawler {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	return &HTTPCrawler{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: userAgent,
	}
}

// fetch retrieves one URL, returning the body and content type.
func (c *HTTPCrawler) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	metrics.Default().RecordTiming(metrics.OpPageFetch, time.Since(start))
	return body, resp.Header.Get("Content-Type"), nil
}

// CrawlSinglePage fetches one webpage and converts it to markdown.
// retryCount extra attempts are made on transient failures; retries are
// a strategy-local concern, not an orchestration one.
func (c *HTTPCrawler) CrawlSinglePage(ctx context.Context, rawURL string, retryCount int) (*models.PageResult, error) {
	var lastErr error
	for attempt := 0; attempt <= retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		body, contentType, err := c.fetch(ctx, rawURL)
		if err != nil {
			lastErr = err
			continue
		}

		page := c.toPage(rawURL, body, contentType)
		return &page, nil
	}

	slog.Warn("page fetch failed after retries", "url", rawURL, "attempts", retryCount+1, "error", lastErr)
	return &models.PageResult{URL: rawURL, Success: false, Error: lastErr.Error()}, nil
}

// CrawlMarkdownFile fetches a text or Markdown resource verbatim.
func (c *HTTPCrawler) CrawlMarkdownFile(ctx context.Context, rawURL string) ([]models.PageResult, error) {
	body, _, err := c.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	content := string(body)
	title := titleFromMarkdown(content)
	if title == "" {
		title = hostOf(rawURL)
	}
	page := models.PageResult{
		URL:     rawURL,
		Title:   title,
		Content: content,
		Success: true,
	}
	return []models.PageResult{page}, nil
}

// toPage converts a fetched body to a PageResult, running HTML through
// the markdown converter when applicable.
func (c *HTTPCrawler) toPage(rawURL string, body []byte, contentType string) models.PageResult {
	if strings.Contains(contentType, "text/html") || looksLikeHTML(body) {
		title, markdown, links := convertHTML(rawURL, body)
		if title == "" {
			// Leave the title empty past this point; batch callers may
			// still have link text to fall back on.
			title = titleFromMarkdown(markdown)
		}
		return models.PageResult{
			URL:     rawURL,
			Title:   title,
			Content: markdown,
			Links:   links,
			Success: true,
		}
	}

	content := string(body)
	title := titleFromMarkdown(content)
	if title == "" {
		title = hostOf(rawURL)
	}
	return models.PageResult{
		URL:     rawURL,
		Title:   title,
		Content: content,
		Success: true,
	}
}

// CrawlBatchWithProgress fetches a flat URL list with a bounded worker
// pool. Per-page failures become unsuccessful PageResults rather than
// errors; the batch itself only fails on context cancellation.
// linkTextFallbacks supplies titles for pages whose own title is empty,
// keyed by URL (used for link-collection expansion).
func (c *HTTPCrawler) CrawlBatchWithProgress(ctx context.Context, urls []string, maxConcurrent int, cb progress.Func, linkTextFallbacks map[string]string) ([]models.PageResult, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = models.DefaultMaxConcurrent
	}
	if maxConcurrent > len(urls) {
		maxConcurrent = len(urls)
	}

	results := make([]models.PageResult, len(urls))
	var processed atomic.Int32

	type job struct {
		idx int
		url string
	}
	jobs := make(chan job, len(urls))
	var wg sync.WaitGroup

	for i := 0; i < maxConcurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}

				page, err := c.CrawlSinglePage(ctx, j.url, 1)
				if err != nil {
					results[j.idx] = models.PageResult{URL: j.url, Success: false, Error: err.Error()}
				} else {
					results[j.idx] = *page
				}
				if results[j.idx].Title == "" {
					results[j.idx].Title = linkTextFallbacks[j.url]
				}
				if results[j.idx].Title == "" && results[j.idx].Success {
					results[j.idx].Title = hostOf(j.url)
				}

				done := int(processed.Add(1))
				if cb != nil {
					cb(progress.StageCrawling, done*100/len(urls),
						fmt.Sprintf("Crawled %d/%d pages", done, len(urls)),
						map[string]any{"processed_pages": done, "total_pages": len(urls)})
				}
			}
		}()
	}

	for i, u := range urls {
		jobs <- job{idx: i, url: u}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// CrawlRecursiveWithProgress runs a breadth-first crawl from the seed
// URLs, bounded by maxDepth levels and restricted to the seeds' hosts.
func (c *HTTPCrawler) CrawlRecursiveWithProgress(ctx context.Context, seedURLs []string, maxDepth, maxConcurrent int, cb progress.Func) ([]models.PageResult, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}

	allowedHosts := make(map[string]bool, len(seedURLs))
	for _, s := range seedURLs {
		if u, err := url.Parse(s); err == nil {
			allowedHosts[strings.ToLower(u.Host)] = true
		}
	}

	visited := make(map[string]bool)
	frontier := make([]string, 0, len(seedURLs))
	for _, s := range seedURLs {
		key := Canonical(s)
		if !visited[key] {
			visited[key] = true
			frontier = append(frontier, s)
		}
	}

	var pages []models.PageResult
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if cb != nil {
			cb(progress.StageCrawling, (depth-1)*100/maxDepth,
				fmt.Sprintf("Crawling depth %d/%d (%d URLs)", depth, maxDepth, len(frontier)),
				map[string]any{"depth": depth, "frontier": len(frontier)})
		}

		levelPages, err := c.CrawlBatchWithProgress(ctx, frontier, maxConcurrent, nil, nil)
		if err != nil {
			return nil, err
		}
		pages = append(pages, levelPages...)

		if depth == maxDepth {
			break
		}

		var next []string
		for _, p := range levelPages {
			if !p.Success {
				continue
			}
			for _, link := range p.Links {
				lu, err := url.Parse(link)
				if err != nil || !allowedHosts[strings.ToLower(lu.Host)] || IsBinaryFile(link) {
					continue
				}
				key := Canonical(link)
				if visited[key] {
					continue
				}
				visited[key] = true
				next = append(next, link)
			}
		}
		frontier = next
	}

	if cb != nil {
		cb(progress.StageCrawling, 100,
			fmt.Sprintf("Recursive crawl finished: %d pages", len(pages)),
			map[string]any{"total_pages": len(pages)})
	}
	return pages, nil
}

func titleFromMarkdown(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}
