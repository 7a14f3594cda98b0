package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/doccrawl/internal/logger"
)

// DynamicConfig holds configuration for the dynamic fetcher.
type DynamicConfig struct {
	UserAgent string
	Timeout   time.Duration
	// ExtraArgs are Chrome command line switches such as
	// "--disable-blink-features=AutomationControlled".
	ExtraArgs []string
	// ShowBrowser runs Chrome with a visible window instead of headless.
	ShowBrowser bool
}

// DefaultDynamicConfig returns sensible defaults.
func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
		ExtraArgs: []string{"--disable-blink-features=AutomationControlled", "--no-sandbox"},
	}
}

// DynamicFetcher uses chromedp for JavaScript-rendered pages. One browser
// process is shared; every Fetch runs in its own tab.
type DynamicFetcher struct {
	config    DynamicConfig
	allocCtx  context.Context
	cancelCtx context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

// NewDynamic creates a dynamic fetcher. The browser starts lazily on the
// first Fetch.
func NewDynamic(cfg DynamicConfig) *DynamicFetcher {
	defaults := DefaultDynamicConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !cfg.ShowBrowser),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	for _, arg := range cfg.ExtraArgs {
		if name, value, ok := parseFlag(arg); ok {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}
	if chromePath := FindChromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	opts = append(opts, chromedp.UserAgent(cfg.UserAgent))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher created",
		"headless", !cfg.ShowBrowser,
		"extra_args", cfg.ExtraArgs,
		"timeout", cfg.Timeout)

	return &DynamicFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}
}

// parseFlag converts "--name=value" or "--name" into a chromedp flag.
func parseFlag(arg string) (string, any, bool) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil, false
	}
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return name, true, true
	}
	return name, value, true
}

// Fetch retrieves page content using a headless browser.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	wait, err := ParseWaitFor(opts.WaitFor)
	if err != nil {
		return result, err
	}

	parent, err := f.browser()
	if err != nil {
		return result, err
	}
	tabCtx, cancelTab := chromedp.NewContext(parent)
	defer cancelTab()
	// The tab belongs to the browser; tie it to the caller's context too.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	resp := &documentResponse{}
	chromedp.ListenTarget(tabCtx, resp.listen)

	var html, title string
	actions := []chromedp.Action{network.Enable()}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	if opts.UserAgent != "" && opts.UserAgent != f.config.UserAgent {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	actions = append(actions, chromedp.Navigate(targetURL), chromedp.WaitReady("body"))
	if opts.JSCode != "" {
		actions = append(actions, evaluateScript(opts.JSCode))
	}
	actions = append(actions,
		wait.Action(),
		chromedp.OuterHTML("html", &html),
		chromedp.Title(&title),
		chromedp.Location(&result.FinalURL),
	)

	logger.Debug("chromedp executing actions",
		"url", targetURL,
		"action_count", len(actions),
		"timeout", timeout,
		"wait", wait.Kind.String(),
		"js_code", opts.JSCode != "")

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || timeoutCtx.Err() != nil {
			logger.Warn("browser timeout - possible anti-bot protection", "url", targetURL)
			return result, fmt.Errorf("%w: %w", ErrChallengeTimeout, err)
		}
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	result.HTML = html
	result.Title = cleanText(title)
	result.StatusCode, result.ContentType = resp.get()
	if result.StatusCode == 0 {
		result.StatusCode = 200
	}
	if result.ContentType == "" {
		result.ContentType = "text/html"
	}

	if result.StatusCode >= 400 {
		return result, fmt.Errorf("%w: %d", ErrHTTPStatus, result.StatusCode)
	}
	if challenge := DetectChallenge(title, html); challenge != "" {
		logger.Warn("challenge page detected", "url", targetURL, "type", challenge)
		return result, fmt.Errorf("%w: %s", ErrAntiBot, challenge)
	}

	if err := parseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	logger.Debug("dynamic fetch complete",
		"url", targetURL,
		"final_url", result.FinalURL,
		"status", result.StatusCode,
		"title", result.Title,
		"links", len(result.Links))

	return result, nil
}

// browser starts the shared browser process on first use.
func (f *DynamicFetcher) browser() (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browserCtx != nil {
		return f.browserCtx, nil
	}

	browserCtx, cancel := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	f.browserCtx, f.cancelBrowser = browserCtx, cancel
	return browserCtx, nil
}

// evaluateScript runs page JavaScript; a script exception is logged and the
// fetch carries on with whatever the page rendered.
func evaluateScript(code string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := chromedp.Evaluate(code+"\n;void 0", nil).Do(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("page script failed", "error", err)
		}
		return nil
	})
}

// documentResponse records the status of the first document response,
// which is the main frame's. Redirect hops do not emit ResponseReceived.
type documentResponse struct {
	mu          sync.Mutex
	status      int
	contentType string
}

func (d *documentResponse) listen(ev any) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != 0 {
		return
	}
	d.status = int(e.Response.Status)
	d.contentType = e.Response.MimeType
}

func (d *documentResponse) get() (int, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status, d.contentType
}

// Close shuts down the browser.
func (f *DynamicFetcher) Close() error {
	f.mu.Lock()
	if f.cancelBrowser != nil {
		f.cancelBrowser()
		f.browserCtx, f.cancelBrowser = nil, nil
	}
	f.mu.Unlock()
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
