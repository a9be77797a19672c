package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlSinglePageHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<!doctype html>
<html><head><title>Guide - docs.test</title></head>
<body>
<nav><a href="/ignored">Nav link</a></nav>
<h1>Getting Started</h1>
<p>Install the package and <a href="/usage">read the usage docs</a>.</p>
<pre><code>go install docs.test/cmd@latest</code></pre>
<script>track();</script>
</body></html>`)
	}))
	defer srv.Close()

	c := New("")
	page, err := c.CrawlSinglePage(context.Background(), srv.URL+"/guide", 0)
	require.NoError(t, err)
	require.True(t, page.Success)

	assert.Equal(t, "Guide - docs.test", page.Title)
	assert.Contains(t, page.Content, "# Getting Started")
	assert.Contains(t, page.Content, "```")
	assert.Contains(t, page.Content, "go install docs.test/cmd@latest")
	// Script and nav content never reach the markdown.
	assert.NotContains(t, page.Content, "track()")
	assert.NotContains(t, page.Content, "Nav link")
	// Relative links are resolved against the page URL.
	assert.Contains(t, page.Links, srv.URL+"/usage")
}

func TestCrawlSinglePageRetriesThenReportsFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("")
	page, err := c.CrawlSinglePage(context.Background(), srv.URL, 1)
	require.NoError(t, err, "fetch failures become unsuccessful pages, not errors")
	assert.False(t, page.Success)
	assert.Contains(t, page.Error, "500")
	assert.Equal(t, int32(2), hits.Load())
}

func TestCrawlMarkdownFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "# My Library\n\nUsage notes.")
	}))
	defer srv.Close()

	c := New("")
	pages, err := c.CrawlMarkdownFile(context.Background(), srv.URL+"/readme.md")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "My Library", pages[0].Title)
	assert.Equal(t, "# My Library\n\nUsage notes.", pages[0].Content)
}

func TestCrawlBatchWithProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body><p>content of %s</p></body></html>", r.URL.Path)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/missing", srv.URL + "/b"}

	var lastPct int
	var reports int
	cb := func(_ string, pct int, _ string, _ map[string]any) {
		reports++
		lastPct = pct
	}

	c := New("")
	pages, err := c.CrawlBatchWithProgress(context.Background(), urls, 2, cb,
		map[string]string{srv.URL + "/a": "Page A"})
	require.NoError(t, err)
	require.Len(t, pages, 3)

	// Results keep input order regardless of worker scheduling.
	assert.Equal(t, srv.URL+"/a", pages[0].URL)
	assert.True(t, pages[0].Success)
	assert.Equal(t, "Page A", pages[0].Title, "link text fills in for untitled pages")
	assert.False(t, pages[1].Success)
	assert.True(t, pages[2].Success)

	assert.Equal(t, 3, reports)
	assert.Equal(t, 100, lastPct)
}

func TestCrawlBatchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New("")
	_, err := c.CrawlBatchWithProgress(ctx, []string{srv.URL}, 1, nil, nil)
	assert.Error(t, err)
}

func TestCrawlRecursiveStaysOnHost(t *testing.T) {
	var external atomic.Int32
	externalSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		external.Add(1)
	}))
	defer externalSrv.Close()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprintf(w, `<html><body><h1>Root</h1>
<a href="/child">Child</a>
<a href="%s/elsewhere">External</a>
<a href="/file.zip">Download</a>
</body></html>`, externalSrv.URL)
		default:
			fmt.Fprint(w, `<html><body><h1>Child</h1><a href="/">Back</a></body></html>`)
		}
	}))
	defer srv.Close()

	c := New("")
	pages, err := c.CrawlRecursiveWithProgress(context.Background(), []string{srv.URL + "/"}, 2, 2, nil)
	require.NoError(t, err)

	// Root plus child; the external host and the archive are skipped and
	// the backlink to "/" is already visited.
	require.Len(t, pages, 2)
	assert.Equal(t, "Root", pages[0].Title)
	assert.Equal(t, "Child", pages[1].Title)
	assert.Zero(t, external.Load())
}

func TestCrawlRecursiveDepthOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Root</h1><a href="/child">Child</a></body></html>`)
	}))
	defer srv.Close()

	c := New("")
	pages, err := c.CrawlRecursiveWithProgress(context.Background(), []string{srv.URL}, 1, 1, nil)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
