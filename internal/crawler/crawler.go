package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/doccrawl/internal/logger"
	"github.com/jmylchreest/doccrawl/pkg/cleaner"
	"github.com/jmylchreest/doccrawl/pkg/fetcher"
	"github.com/jmylchreest/doccrawl/pkg/markdown"
)

// ErrUnsupportedContent is returned for responses whose media type is not allowed.
var ErrUnsupportedContent = errors.New("unsupported content type")

// Result represents a single crawled page.
type Result struct {
	URL        string
	FinalURL   string
	Depth      int
	Score      float64
	Title      string
	StatusCode int
	FromCache  bool
	Markdown   *markdown.Document
	Stats      *cleaner.Stats
	Error      error

	FetchedAt       time.Time
	FetchDuration   time.Duration
	ProcessDuration time.Duration
}

// PageTitle returns the page title, or a placeholder naming the URL.
func (r Result) PageTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return "Page from " + r.URL
}

// Content returns the generated Markdown, or "" when none was produced.
func (r Result) Content() string {
	if r.Markdown == nil {
		return ""
	}
	return r.Markdown.RawMarkdown
}

// Config holds crawler configuration.
type Config struct {
	MaxDepth        int  // Max link depth (0 = seed only, 1 = seed + direct links)
	MaxPages        int  // Max pages to process (0 = unlimited)
	IncludeExternal bool // Follow links to other hosts

	IncludePatterns []string // Glob patterns a link must match (any)
	ExcludePatterns []string // Glob patterns that reject a link
	ContentTypes    []string // Allowed media types, by URL extension and response

	Keywords      []string
	KeywordWeight float64

	Concurrency  int           // Max concurrent fetches
	Delay        time.Duration // Delay before each fetch
	RequestDelay time.Duration // Minimum spacing between emitted results

	FetchOptions fetcher.Options
	Auth         fetcher.BearerAuth
}

// DefaultConfig returns sensible crawler defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      1,
		Concurrency:   1,
		ContentTypes:  []string{"text/html"},
		KeywordWeight: 0.7,
		RequestDelay:  2 * time.Second,
	}
}

// Crawler orchestrates a best-first crawl from one seed.
type Crawler struct {
	fetcher   fetcher.Fetcher
	generator markdown.Generator
	page      *cleaner.PageConfig
	config    Config

	exclude *URLPatternFilter
	include *URLPatternFilter
	types   *ContentTypeFilter
	scorer  Scorer
}

// New creates a Crawler. A nil page config means cleaner.DefaultPageConfig().
func New(f fetcher.Fetcher, gen markdown.Generator, page *cleaner.PageConfig, cfg Config) (*Crawler, error) {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	if page == nil {
		page = cleaner.DefaultPageConfig()
	}

	exclude, err := NewURLPatternFilter(cfg.ExcludePatterns, true)
	if err != nil {
		return nil, err
	}
	include, err := NewURLPatternFilter(cfg.IncludePatterns, false)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		fetcher:   f,
		generator: gen,
		page:      page,
		config:    cfg,
		exclude:   exclude,
		include:   include,
		types:     NewContentTypeFilter(cfg.ContentTypes),
		scorer:    NewKeywordScorer(cfg.Keywords, cfg.KeywordWeight),
	}, nil
}

// filters builds the link filter chain for a crawl rooted at seed.
func (c *Crawler) filters(seed string) *FilterChain {
	var fs []Filter
	if !c.config.IncludeExternal {
		fs = append(fs, NewDomainFilter(seed))
	}
	if c.exclude != nil {
		fs = append(fs, c.exclude)
	}
	if c.include != nil {
		fs = append(fs, c.include)
	}
	if c.types != nil {
		fs = append(fs, c.types)
	}
	return NewFilterChain(fs...)
}

// Crawl starts crawling from seed and returns results via channel. The
// channel is closed when the crawl finishes or ctx is cancelled.
func (c *Crawler) Crawl(ctx context.Context, seed string) <-chan Result {
	results := make(chan Result, c.config.Concurrency)

	go func() {
		defer close(results)
		c.crawl(ctx, seed, results)
	}()

	return results
}

func (c *Crawler) crawl(ctx context.Context, seed string, results chan<- Result) {
	logger.Debug("crawler starting",
		"seed", seed,
		"max_depth", c.config.MaxDepth,
		"max_pages", c.config.MaxPages,
		"concurrency", c.config.Concurrency,
		"delay", c.config.Delay,
		"request_delay", c.config.RequestDelay)

	queue := NewURLQueue()
	if !queue.Add(seed, 0, 0) {
		results <- Result{URL: seed, Error: fmt.Errorf("invalid seed URL %q", seed)}
		return
	}

	chain := c.filters(seed)
	emit := newEmitter(results, c.config.RequestDelay)
	processed := 0

	for queue.Len() > 0 {
		if ctx.Err() != nil {
			return
		}

		// Pop a batch so priorities are re-evaluated between batches.
		var batch []Item
		for len(batch) < c.config.Concurrency {
			if c.config.MaxPages > 0 && processed+len(batch) >= c.config.MaxPages {
				break
			}
			item, ok := queue.Pop()
			if !ok {
				break
			}
			batch = append(batch, item)
		}
		if len(batch) == 0 {
			logger.Debug("crawler reached max pages limit", "max_pages", c.config.MaxPages)
			return
		}
		processed += len(batch)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.config.Concurrency)
		for _, item := range batch {
			g.Go(func() error {
				if err := sleep(gctx, c.config.Delay); err != nil {
					return err
				}
				res, links := c.processURL(gctx, item)
				if item.Depth < c.config.MaxDepth {
					c.enqueue(queue, chain, links, item)
				}
				return emit.send(gctx, res)
			})
		}
		if err := g.Wait(); err != nil {
			logger.Debug("crawler stopped", "error", err)
			return
		}
	}
	logger.Debug("crawler finished", "pages", processed)
}

// enqueue filters, scores and queues links discovered on item's page.
func (c *Crawler) enqueue(queue *URLQueue, chain *FilterChain, links []string, from Item) {
	added := 0
	for _, link := range links {
		if queue.IsVisited(link) {
			continue
		}
		if ok, by := chain.Apply(link); !ok {
			logger.Debug("crawler skipping link", "link", link, "filter", by)
			continue
		}
		if queue.Add(link, from.Depth+1, c.scorer.Score(link)) {
			added++
		}
	}
	if added > 0 {
		logger.Info("following links", "from", from.URL, "count", added, "depth", from.Depth+1)
	}
}

// processURL fetches one page and converts it to Markdown. It returns the
// page's outgoing links whenever the fetch itself succeeded.
func (c *Crawler) processURL(ctx context.Context, item Item) (Result, []string) {
	res := Result{URL: item.URL, Depth: item.Depth, Score: item.Score}
	logger.Debug("crawler processing URL", "url", item.URL, "depth", item.Depth, "score", item.Score)

	opts := c.config.Auth.Apply(item.URL, c.config.FetchOptions)
	fetchStart := time.Now()
	content, err := c.fetcher.Fetch(ctx, item.URL, opts)
	res.FetchDuration = time.Since(fetchStart)
	res.StatusCode = content.StatusCode
	res.FinalURL = content.FinalURL
	res.FromCache = content.FromCache
	res.FetchedAt = content.FetchedAt
	res.Title = content.Title

	if err != nil {
		logger.Info("fetch failed", "url", item.URL, "error", err, "duration", res.FetchDuration)
		res.Error = fmt.Errorf("fetch error: %w", err)
		return res, nil
	}

	if mt := content.MediaType(); mt != "" && c.types != nil && !c.types.Allows(mt) {
		res.Error = fmt.Errorf("%w: %s", ErrUnsupportedContent, mt)
		return res, content.Links
	}

	processStart := time.Now()
	pageURL := content.EffectiveURL()
	pageConfig := c.page.Copy()
	pageConfig.BaseURL = pageURL

	cleaned := cleaner.NewPage(pageConfig).CleanWithStats(content.HTML)
	for _, w := range cleaned.Warnings {
		logger.Debug("page cleaner warning", "url", pageURL, "warning", w.String())
	}
	res.Stats = cleaned.Stats

	doc, err := c.generator.Generate(ctx, markdown.NewCall(markdown.Positional(cleaned.Content), pageURL))
	res.ProcessDuration = time.Since(processStart)
	if err != nil {
		res.Error = fmt.Errorf("markdown generation failed: %w", err)
		return res, content.Links
	}
	res.Markdown = doc

	logger.Info("crawled",
		"url", item.URL,
		"depth", item.Depth,
		"fetch", res.FetchDuration.Round(time.Millisecond),
		"cached", res.FromCache,
		"links", len(content.Links),
		"cleaned", cleaned.Stats.String())
	return res, content.Links
}

// emitter sends results with a minimum spacing between them.
type emitter struct {
	mu    sync.Mutex
	out   chan<- Result
	delay time.Duration
	last  time.Time
}

func newEmitter(out chan<- Result, delay time.Duration) *emitter {
	return &emitter{out: out, delay: delay}
}

func (e *emitter) send(ctx context.Context, res Result) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.last.IsZero() {
		if err := sleep(ctx, e.delay-time.Since(e.last)); err != nil {
			return err
		}
	}
	select {
	case e.out <- res:
		e.last = time.Now()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
