package crawler

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
)

// sitemapMaxNesting bounds recursion through sitemap index files.
const sitemapMaxNesting = 3

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// ParseSitemap fetches and parses an XML sitemap into a flat URL list.
// Sitemap index files are expanded recursively. An empty sitemap yields
// an empty list, not an error.
func (c *HTTPCrawler) ParseSitemap(ctx context.Context, rawURL string) ([]string, error) {
	return c.parseSitemapDepth(ctx, rawURL, 0)
}

func (c *HTTPCrawler) parseSitemapDepth(ctx context.Context, rawURL string, nesting int) ([]string, error) {
	if nesting >= sitemapMaxNesting {
		slog.Warn("sitemap nesting limit reached, skipping", "url", rawURL)
		return nil, nil
	}

	body, _, err := c.fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}

	var urlset sitemapURLSet
	if err := xml.Unmarshal(body, &urlset); err == nil && len(urlset.URLs) > 0 {
		urls := make([]string, 0, len(urlset.URLs))
		for _, u := range urlset.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				urls = append(urls, loc)
			}
		}
		return urls, nil
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		var urls []string
		for _, sm := range index.Sitemaps {
			loc := strings.TrimSpace(sm.Loc)
			if loc == "" {
				continue
			}
			nested, err := c.parseSitemapDepth(ctx, loc, nesting+1)
			if err != nil {
				slog.Warn("nested sitemap failed, continuing", "url", loc, "error", err)
				continue
			}
			urls = append(urls, nested...)
		}
		return urls, nil
	}

	// Neither shape parsed; treat as empty rather than failing the run.
	slog.Warn("sitemap did not contain a urlset or sitemapindex", "url", rawURL)
	return nil, nil
}
