package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/doccrawl/pkg/cleaner"
	"github.com/jmylchreest/doccrawl/pkg/fetcher"
	"github.com/jmylchreest/doccrawl/pkg/markdown"
)

// siteFetcher serves pages from a map and records request order.
type siteFetcher struct {
	mu      sync.Mutex
	pages   map[string]fetcher.Content
	fails   map[string]error
	visited []string
	headers []map[string]string
}

func (f *siteFetcher) Fetch(_ context.Context, url string, opts fetcher.Options) (fetcher.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited = append(f.visited, url)
	f.headers = append(f.headers, opts.Headers)
	if err := f.fails[url]; err != nil {
		return fetcher.Content{URL: url, StatusCode: 500}, err
	}
	page, ok := f.pages[url]
	if !ok {
		return fetcher.Content{URL: url, StatusCode: 404}, fetcher.ErrHTTPStatus
	}
	page.URL = url
	if page.StatusCode == 0 {
		page.StatusCode = 200
	}
	if page.ContentType == "" {
		page.ContentType = "text/html"
	}
	return page, nil
}

func (f *siteFetcher) Close() error { return nil }
func (f *siteFetcher) Type() string { return "site" }

func (f *siteFetcher) order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.visited...)
}

func page(title, body string, links ...string) fetcher.Content {
	return fetcher.Content{
		Title: title,
		HTML:  "<html><head><title>" + title + "</title></head><body>" + body + "</body></html>",
		Links: links,
	}
}

func collect(t *testing.T, results <-chan Result) []Result {
	t.Helper()
	var out []Result
	timeout := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-results:
			if !ok {
				return out
			}
			out = append(out, r)
		case <-timeout:
			t.Fatal("crawl did not finish")
		}
	}
}

func newTestCrawler(t *testing.T, f fetcher.Fetcher, cfg Config) *Crawler {
	t.Helper()
	c, err := New(f, markdown.NewDefault(), nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestCrawler_BestFirstOrder(t *testing.T) {
	site := &siteFetcher{pages: map[string]fetcher.Content{
		"https://example.com": page("Home", "<p>home</p>",
			"https://example.com/blog",
			"https://example.com/docs/guide",
			"https://example.com/about",
			"https://example.com/docs",
		),
		"https://example.com/blog":       page("Blog", "<p>blog</p>"),
		"https://example.com/docs/guide": page("Guide", "<p>guide</p>"),
		"https://example.com/about":      page("About", "<p>about</p>"),
		"https://example.com/docs":       page("Docs", "<p>docs</p>"),
	}}

	cfg := DefaultConfig()
	cfg.RequestDelay = 0
	cfg.Keywords = []string{"docs", "guide"}
	results := collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://example.com"))

	want := []string{
		"https://example.com",
		"https://example.com/docs/guide",
		"https://example.com/docs",
		"https://example.com/blog",
		"https://example.com/about",
	}
	got := site.order()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("fetch order = %v, want %v", got, want)
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	if results[1].Depth != 1 || results[1].Score <= results[3].Score {
		t.Errorf("unexpected depth/score: %+v vs %+v", results[1], results[3])
	}
}

func TestCrawler_MarkdownAndCleaning(t *testing.T) {
	site := &siteFetcher{pages: map[string]fetcher.Content{
		"https://example.com/docs": page("Docs",
			`<script>track()</script><h1>Install</h1><p>Run <a href="/setup">setup</a>.</p>`+
				`<p>See <a href="https://elsewhere.org/x">elsewhere</a>.</p>`),
	}}

	cfg := DefaultConfig()
	cfg.MaxDepth = 0
	cfg.RequestDelay = 0
	pageConfig := cleaner.DefaultPageConfig()
	pageConfig.ExcludeExternalLinks = true
	c, err := New(site, markdown.NewDefault(), pageConfig, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	results := collect(t, c.Crawl(context.Background(), "https://example.com/docs"))

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Error != nil {
		t.Fatalf("unexpected error: %v", r.Error)
	}
	md := r.Content()
	for _, want := range []string{"# Install", "[setup](https://example.com/setup)", "elsewhere"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\ngot:\n%s", want, md)
		}
	}
	for _, unwanted := range []string{"track()", "elsewhere.org"} {
		if strings.Contains(md, unwanted) {
			t.Errorf("markdown should not contain %q\ngot:\n%s", unwanted, md)
		}
	}
	if r.PageTitle() != "Docs" || r.Stats == nil {
		t.Errorf("title = %q, stats = %v", r.PageTitle(), r.Stats)
	}
}

func TestCrawler_DepthAndDomainLimits(t *testing.T) {
	site := &siteFetcher{pages: map[string]fetcher.Content{
		"https://example.com":          page("Home", "<p>x</p>", "https://example.com/a", "https://other.com/docs"),
		"https://example.com/a":        page("A", "<p>a</p>", "https://example.com/a/deeper"),
		"https://example.com/a/deeper": page("Deeper", "<p>d</p>"),
		"https://other.com/docs":       page("Other", "<p>o</p>"),
	}}

	cfg := DefaultConfig()
	cfg.RequestDelay = 0
	collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://example.com"))

	got := strings.Join(site.order(), " ")
	if got != "https://example.com https://example.com/a" {
		t.Errorf("fetched %q", got)
	}

	site.visited = nil
	cfg.IncludeExternal = true
	cfg.MaxDepth = 2
	collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://example.com"))
	if n := len(site.order()); n != 4 {
		t.Errorf("fetched %d pages with external links and depth 2, want 4: %v", n, site.order())
	}
}

func TestCrawler_FiltersSkipSeed(t *testing.T) {
	site := &siteFetcher{pages: map[string]fetcher.Content{
		"https://example.com/home": page("Home", "<p>x</p>",
			"https://example.com/docs/a",
			"https://example.com/docs/a#frag",
			"https://example.com/blog",
			"https://example.com/docs/manual.pdf",
		),
		"https://example.com/docs/a": page("A", "<p>a</p>"),
	}}

	cfg := DefaultConfig()
	cfg.RequestDelay = 0
	cfg.IncludePatterns = []string{"*docs*"}
	cfg.ExcludePatterns = []string{"*#*"}
	collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://example.com/home"))

	got := strings.Join(site.order(), " ")
	if got != "https://example.com/home https://example.com/docs/a" {
		t.Errorf("fetched %q", got)
	}
}

func TestCrawler_ErrorsAreReported(t *testing.T) {
	boom := errors.New("connection reset")
	site := &siteFetcher{
		pages: map[string]fetcher.Content{
			"https://example.com": page("Home", "<p>x</p>", "https://example.com/broken", "https://example.com/pdf"),
			"https://example.com/pdf": {
				HTML:        "%PDF-1.4",
				ContentType: "application/pdf",
			},
		},
		fails: map[string]error{"https://example.com/broken": boom},
	}

	cfg := DefaultConfig()
	cfg.RequestDelay = 0
	results := collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://example.com"))

	byURL := make(map[string]Result)
	for _, r := range results {
		byURL[r.URL] = r
	}
	if !errors.Is(byURL["https://example.com/broken"].Error, boom) {
		t.Errorf("broken page error = %v", byURL["https://example.com/broken"].Error)
	}
	if !errors.Is(byURL["https://example.com/pdf"].Error, ErrUnsupportedContent) {
		t.Errorf("pdf page error = %v", byURL["https://example.com/pdf"].Error)
	}
	if byURL["https://example.com"].Error != nil {
		t.Errorf("seed error = %v", byURL["https://example.com"].Error)
	}
}

func TestCrawler_MaxPagesAndConcurrency(t *testing.T) {
	pages := map[string]fetcher.Content{}
	var links []string
	for _, p := range []string{"a", "b", "c", "d", "e", "f"} {
		u := "https://example.com/" + p
		links = append(links, u)
		pages[u] = page(p, "<p>"+p+"</p>")
	}
	pages["https://example.com"] = page("Home", "<p>x</p>", links...)
	site := &siteFetcher{pages: pages}

	cfg := DefaultConfig()
	cfg.RequestDelay = 0
	cfg.Concurrency = 3
	cfg.MaxPages = 4
	results := collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://example.com"))
	if len(results) != 4 {
		t.Errorf("got %d results, want 4", len(results))
	}
}

func TestCrawler_AuthAppliedPerHost(t *testing.T) {
	site := &siteFetcher{pages: map[string]fetcher.Content{
		"https://huggingface.co/docs": page("HF", "<p>x</p>"),
	}}

	cfg := DefaultConfig()
	cfg.RequestDelay = 0
	cfg.MaxDepth = 0
	cfg.Auth = fetcher.HuggingFaceAuth("hf_token")
	collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://huggingface.co/docs"))

	if got := site.headers[0]["Authorization"]; got != "Bearer hf_token" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestCrawler_RequestDelay(t *testing.T) {
	site := &siteFetcher{pages: map[string]fetcher.Content{
		"https://example.com":   page("Home", "<p>x</p>", "https://example.com/a"),
		"https://example.com/a": page("A", "<p>a</p>"),
	}}

	cfg := DefaultConfig()
	cfg.RequestDelay = 150 * time.Millisecond
	start := time.Now()
	results := collect(t, newTestCrawler(t, site, cfg).Crawl(context.Background(), "https://example.com"))
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if elapsed := time.Since(start); elapsed < cfg.RequestDelay {
		t.Errorf("two results in %v, want at least %v apart", elapsed, cfg.RequestDelay)
	}
}

func TestCrawler_Cancel(t *testing.T) {
	site := &siteFetcher{pages: map[string]fetcher.Content{
		"https://example.com":   page("Home", "<p>x</p>", "https://example.com/a"),
		"https://example.com/a": page("A", "<p>a</p>"),
	}}

	cfg := DefaultConfig()
	cfg.RequestDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	results := newTestCrawler(t, site, cfg).Crawl(ctx, "https://example.com")

	first := <-results
	if first.URL != "https://example.com" {
		t.Errorf("first result = %q", first.URL)
	}
	cancel()
	if rest := collect(t, results); len(rest) != 0 {
		t.Errorf("got %d results after cancel", len(rest))
	}
}

func TestCrawler_InvalidSeed(t *testing.T) {
	results := collect(t, newTestCrawler(t, &siteFetcher{}, DefaultConfig()).Crawl(context.Background(), "not a url"))
	if len(results) != 1 || results[0].Error == nil {
		t.Errorf("results = %+v, want one error", results)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludePatterns = []string{"[broken"}
	if _, err := New(&siteFetcher{}, markdown.NewDefault(), nil, cfg); err == nil {
		t.Error("expected error for invalid include pattern")
	}
}

func TestResult_PageTitle(t *testing.T) {
	if got := (Result{URL: "https://example.com/x"}).PageTitle(); got != "Page from https://example.com/x" {
		t.Errorf("PageTitle() = %q", got)
	}
	if got := (Result{}).Content(); got != "" {
		t.Errorf("Content() = %q", got)
	}
}
