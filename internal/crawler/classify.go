// Package crawler implements URL classification and the crawl
// strategies: single page, markdown file, sitemap expansion, batch and
// recursive crawling.
package crawler

import (
	"net/url"
	"path"
	"strings"
)

// Crawl type tags classifying which strategy produced a result set.
const (
	CrawlTypeTextFile       = "text_file"
	CrawlTypeLinkCollection = "link_collection_with_crawled_links"
	CrawlTypeSitemap        = "sitemap"
	CrawlTypeNormal         = "normal"
	CrawlTypeSinglePage     = "single_page"
)

var textFileExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".mdx":      true,
	".rst":      true,
}

var binaryExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".zip": true, ".tar": true, ".gz": true,
	".tgz": true, ".rar": true, ".7z": true, ".exe": true, ".dmg": true,
	".pkg": true, ".deb": true, ".rpm": true, ".png": true, ".jpg": true,
	".jpeg": true, ".gif": true, ".svg": true, ".ico": true, ".webp": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".webm": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
}

// IsTextFile reports whether the URL points at a plain text or Markdown
// resource. Checked before the sitemap test: a file named
// "sitemap.md" is a document, not a sitemap.
func IsTextFile(rawURL string) bool {
	return textFileExts[urlExt(rawURL)]
}

// IsSitemap reports whether the URL looks like an XML sitemap.
func IsSitemap(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	return strings.HasSuffix(p, "sitemap.xml") ||
		strings.HasSuffix(p, "sitemap_index.xml") ||
		(strings.Contains(p, "sitemap") && strings.HasSuffix(p, ".xml"))
}

// IsBinaryFile reports whether the URL points at a non-crawlable file
// type (archives, images, media, office documents).
func IsBinaryFile(rawURL string) bool {
	return binaryExts[urlExt(rawURL)]
}

func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}

// Canonical normalizes a URL for identity comparison: lowercase scheme
// and host, default ports and fragments dropped, trailing slash
// stripped. Invalid URLs normalize to themselves.
func Canonical(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port != "" && !((u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443")) {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}

// SameResource reports whether two URLs address the same resource after
// canonical normalization.
func SameResource(a, b string) bool {
	return Canonical(a) == Canonical(b)
}
