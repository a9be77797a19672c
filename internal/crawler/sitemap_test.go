package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSitemap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://docs.test/a</loc></url>
  <url><loc> https://docs.test/b </loc></url>
  <url><loc></loc></url>
</urlset>`)
	}))
	defer srv.Close()

	c := New("")
	urls, err := c.ParseSitemap(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.test/a", "https://docs.test/b"}, urls)
}

func TestParseSitemapIndex(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		switch r.URL.Path {
		case "/sitemap.xml":
			fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/pages.xml</loc></sitemap>
  <sitemap><loc>%s/broken.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
		case "/pages.xml":
			fmt.Fprint(w, `<?xml version="1.0"?>
<urlset><url><loc>https://docs.test/a</loc></url></urlset>`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New("")
	// A broken nested sitemap is skipped, not fatal.
	urls, err := c.ParseSitemap(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.test/a"}, urls)
}

func TestParseSitemapEmptyOrBogus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not xml at all")
	}))
	defer srv.Close()

	c := New("")
	urls, err := c.ParseSitemap(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Empty(t, urls)
}
