package crawler

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/parser"
	"github.com/raphaelgruber/crawlkit/internal/progress"
)

// linkCollectionMinLinks is the threshold above which a text file is
// treated as a link collection worth expanding.
const linkCollectionMinLinks = 3

// Strategies is the set of crawl primitives the executor dispatches to.
// *HTTPCrawler satisfies it; tests substitute fakes.
type Strategies interface {
	CrawlSinglePage(ctx context.Context, url string, retryCount int) (*models.PageResult, error)
	CrawlMarkdownFile(ctx context.Context, url string) ([]models.PageResult, error)
	CrawlBatchWithProgress(ctx context.Context, urls []string, maxConcurrent int, cb progress.Func, linkTextFallbacks map[string]string) ([]models.PageResult, error)
	CrawlRecursiveWithProgress(ctx context.Context, seedURLs []string, maxDepth, maxConcurrent int, cb progress.Func) ([]models.PageResult, error)
	ParseSitemap(ctx context.Context, url string) ([]string, error)
}

var _ Strategies = (*HTTPCrawler)(nil)

// Executor classifies a URL and runs the matching crawl strategy.
type Executor struct {
	strategies Strategies
}

// NewExecutor creates an executor over the given strategies.
func NewExecutor(s Strategies) *Executor {
	return &Executor{strategies: s}
}

// CrawlByType classifies the request URL and crawls it, returning the
// result pages and the crawl type tag. Classification priority:
// text/markdown file, then sitemap, then regular webpage. Strategy
// failures propagate unchanged.
func (e *Executor) CrawlByType(ctx context.Context, req models.CrawlRequest, cb progress.Func) ([]models.PageResult, string, error) {
	switch {
	case IsTextFile(req.URL):
		return e.crawlTextFile(ctx, req, cb)

	case IsSitemap(req.URL):
		return e.crawlSitemap(ctx, req, cb)

	default:
		return e.crawlWebpage(ctx, req, cb)
	}
}

// crawlTextFile fetches a single text resource. If its content is a
// flat link collection the outbound links are expanded with a batch
// crawl and unioned with the original page.
func (e *Executor) crawlTextFile(ctx context.Context, req models.CrawlRequest, cb progress.Func) ([]models.PageResult, string, error) {
	pages, err := e.strategies.CrawlMarkdownFile(ctx, req.URL)
	if err != nil {
		return nil, "", err
	}
	if len(pages) == 0 {
		return pages, CrawlTypeTextFile, nil
	}

	origin := pages[0]
	if !parser.IsLinkCollection(origin.Content, linkCollectionMinLinks) {
		return pages, CrawlTypeTextFile, nil
	}

	links := parser.ExtractLinks(origin.Content)
	urls := make([]string, 0, len(links))
	fallbacks := make(map[string]string, len(links))
	for _, link := range links {
		// Skip links back to the collection itself and binary files
		if SameResource(link.URL, req.URL) || IsBinaryFile(link.URL) {
			continue
		}
		urls = append(urls, link.URL)
		if link.Text != "" {
			fallbacks[link.URL] = link.Text
		}
	}

	if len(urls) == 0 {
		return pages, CrawlTypeTextFile, nil
	}

	if cb != nil {
		cb(progress.StageCrawling, 0,
			fmt.Sprintf("Link collection detected, crawling %d linked pages", len(urls)),
			map[string]any{"total_pages": len(urls) + 1})
	}

	crawled, err := e.strategies.CrawlBatchWithProgress(ctx, urls, req.Concurrency(), cb, fallbacks)
	if err != nil {
		return nil, "", err
	}

	return append(pages, crawled...), CrawlTypeLinkCollection, nil
}

// crawlSitemap expands a sitemap into a flat URL list and batch-crawls
// all of it with no depth limit. An empty sitemap is an empty result,
// not an error.
func (e *Executor) crawlSitemap(ctx context.Context, req models.CrawlRequest, cb progress.Func) ([]models.PageResult, string, error) {
	urls, err := e.strategies.ParseSitemap(ctx, req.URL)
	if err != nil {
		return nil, "", err
	}
	if len(urls) == 0 {
		return nil, CrawlTypeSitemap, nil
	}

	if cb != nil {
		cb(progress.StageCrawling, 0,
			fmt.Sprintf("Sitemap expanded to %d URLs", len(urls)),
			map[string]any{"total_pages": len(urls)})
	}

	pages, err := e.strategies.CrawlBatchWithProgress(ctx, urls, req.Concurrency(), cb, nil)
	if err != nil {
		return nil, "", err
	}
	return pages, CrawlTypeSitemap, nil
}

// crawlWebpage crawls a regular page, breadth-first when depth allows.
func (e *Executor) crawlWebpage(ctx context.Context, req models.CrawlRequest, cb progress.Func) ([]models.PageResult, string, error) {
	if req.Depth() <= 1 {
		page, err := e.strategies.CrawlSinglePage(ctx, req.URL, 1)
		if err != nil {
			return nil, "", err
		}
		return []models.PageResult{*page}, CrawlTypeSinglePage, nil
	}

	pages, err := e.strategies.CrawlRecursiveWithProgress(ctx, []string{req.URL}, req.Depth(), req.Concurrency(), cb)
	if err != nil {
		return nil, "", err
	}
	return pages, CrawlTypeNormal, nil
}
