package crawler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/services/cache"
)

const tableHeader = `<tr><td></td><td>Description</td><td>Street</td><td>Rooms</td><td>m2</td><td>Floor</td><td>Series</td><td>Price</td></tr>`

type row struct {
	m2    string
	price string
}

func listingPage(next string, rows ...row) string {
	var b strings.Builder
	b.WriteString(`<html><body><form id="filter_frm"><div>filters</div><div>sort</div><table>`)
	b.WriteString(tableHeader)
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr><td><input type="checkbox"></td><td><img src="t.jpg"></td><td>Listing %d</td><td>Street %d</td><td>2</td><td>%s</td><td>3/5</td><td>LT proj.</td><td>%s</td></tr>`, i, i, r.m2, r.price)
	}
	b.WriteString(`<tr><td colspan="9">Pages</td></tr></table></form>`)
	if next != "" {
		fmt.Fprintf(&b, `<a rel="next" href="%s">Next</a>`, next)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func regionPage(links ...Link) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for _, l := range links {
		fmt.Fprintf(&b, `<h4 class="category"><a href="%s">%s</a></h4>`, l.URL, l.Name)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// fakeSite serves a fixed set of pages and counts requests per path
type fakeSite struct {
	*httptest.Server
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newFakeSite(t *testing.T, pages map[string]string) *fakeSite {
	t.Helper()
	site := &fakeSite{pages: pages, hits: make(map[string]int)}
	site.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.hits[r.URL.Path]++
		body, ok := site.pages[r.URL.Path]
		site.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(site.Close)
	return site
}

func (s *fakeSite) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func testFetcher() *Fetcher {
	return NewFetcher(FetcherConfig{
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Retries:           2,
		RetryDelay:        time.Millisecond,
		BlockTime:         time.Minute,
	}, cache.NewMemoryCache(), nil)
}

func testNormalizer() *stats.Normalizer {
	return stats.NewNormalizer(stats.DefaultNormalizerConfig())
}

func parseDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}
