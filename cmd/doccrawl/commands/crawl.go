package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/doccrawl/internal/cache"
	"github.com/jmylchreest/doccrawl/internal/config"
	"github.com/jmylchreest/doccrawl/internal/crawler"
	"github.com/jmylchreest/doccrawl/internal/logger"
	"github.com/jmylchreest/doccrawl/internal/output"
	"github.com/jmylchreest/doccrawl/pkg/fetcher"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl a documentation site into one Markdown file",
	Long: `Crawl a site best-first from <url> and write every page to a single
Markdown file.

Links are followed up to --max-depth levels, staying on the start host
unless --include-external is set. Links must match an --include-pattern,
must not match an --exclude-pattern and must look like an allowed
--content-type. Links containing a --keyword are crawled first.

Pages are fetched with a plain HTTP client unless --wait-for, --js-code
or --wait-for-js-render ask for a browser, or --fetch-mode says otherwise.

Examples:
  doccrawl crawl https://docs.example.com/ -o docs.md
  doccrawl crawl https://docs.example.com/ -d 2 -c 4 --request-delay 0.5
  doccrawl crawl https://app.example.com/ --wait-for css:main --cache-mode enabled`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCrawl,
}

// crawlFlags maps scalar flags onto their config keys.
var crawlFlags = map[string]string{
	"output":                          config.KeyOutput,
	"title":                           config.KeyTitle,
	"max-depth":                       config.KeyMaxDepth,
	"max-pages":                       config.KeyMaxPages,
	"include-external":                config.KeyIncludeExternal,
	"keyword-weight":                  config.KeyKeywordWeight,
	"remove-links":                    config.KeyRemoveLinks,
	"ignore-images":                   config.KeyIgnoreImages,
	"exclude-markdown-external-links": config.KeyExcludeMarkdownExternalLinks,
	"only-text":                       config.KeyOnlyText,
	"verbose":                         config.KeyVerbose,
	"stream":                          config.KeyStream,
	"concurrency":                     config.KeyConcurrency,
	"request-delay":                   config.KeyRequestDelay,
	"delay":                           config.KeyDelay,
	"cache-mode":                      config.KeyCacheMode,
	"cache-dir":                       config.KeyCacheDir,
	"cache-max-age":                   config.KeyCacheMaxAge,
	"fetch-mode":                      config.KeyFetchMode,
	"wait-for":                        config.KeyWaitFor,
	"js-code":                         config.KeyJSCode,
	"wait-for-js-render":              config.KeyWaitForJSRender,
	"page-load-timeout":               config.KeyPageLoadTimeout,
	"show-browser":                    config.KeyShowBrowser,
	"user-agent":                      config.KeyUserAgent,
	"max-body-size":                   config.KeyMaxBodySize,
	"manifest":                        config.KeyManifest,
	"manifest-format":                 config.KeyManifestFormat,
}

// listFlags are repeatable. They are applied by hand because viper splits
// bound slice flags on commas, which breaks glob alternations like *.{a,b}.
var listFlags = map[string]string{
	"include-pattern": config.KeyIncludePattern,
	"exclude-pattern": config.KeyExcludePattern,
	"content-type":    config.KeyContentType,
	"keyword":         config.KeyKeyword,
	"browser-arg":     config.KeyBrowserArgs,
}

// negatedFlags switch a boolean key off when given.
var negatedFlags = map[string]string{
	"keep-links":                      config.KeyRemoveLinks,
	"include-images":                  config.KeyIgnoreImages,
	"include-markdown-external-links": config.KeyExcludeMarkdownExternalLinks,
	"keep-markup":                     config.KeyOnlyText,
	"exclude-external":                config.KeyIncludeExternal,
	"no-stream":                       config.KeyStream,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	flags := crawlCmd.Flags()
	d := config.Default()

	// Output settings
	flags.StringP("output", "o", "", "output file (default: storage/<domain>.md)")
	flags.String("title", d.Title, "title written at the top of the output file")
	flags.Bool("stream", d.Stream, "write each page as soon as it is crawled")
	flags.String("manifest", "", "write a per-page manifest to this file")
	flags.String("manifest-format", d.ManifestFormat, "manifest format: json, jsonl, yaml")

	// Crawling settings
	flags.IntP("max-depth", "d", d.MaxDepth, "max link depth from the start URL (1-5)")
	flags.Int("max-pages", 0, "max pages to process (0=unlimited)")
	flags.Bool("include-external", false, "follow links to other domains")
	flags.StringArray("include-pattern", nil, "glob a link must match, repeatable (default: common documentation paths)")
	flags.StringArray("exclude-pattern", nil, `glob that rejects a link, repeatable (default: "*#*")`)
	flags.StringArray("content-type", nil, `allowed content type, repeatable (default: "text/html")`)
	flags.StringArrayP("keyword", "k", nil, "keyword that raises a link's priority, repeatable (default: documentation terms)")
	flags.Float64("keyword-weight", d.KeywordWeight, "weight of the keyword score")
	flags.IntP("concurrency", "c", d.Concurrency, "concurrent fetches (1-10)")
	flags.Float64("request-delay", d.RequestDelay.Seconds(), "minimum seconds between processed pages")
	flags.Float64("delay", 0, "seconds to wait before each fetch")

	// Content settings
	flags.Bool("remove-links", d.RemoveLinks, "strip navigation elements (use --remove-links=false to keep them)")
	flags.Bool("ignore-images", d.IgnoreImages, "leave images out of the Markdown")
	flags.Bool("exclude-markdown-external-links", d.ExcludeMarkdownExternalLinks, "replace links to other domains with their text")
	flags.Bool("only-text", d.OnlyText, "drop media and form controls, keeping text structure")
	flags.BoolP("verbose", "v", false, "log progress for every page")

	for name := range negatedFlags {
		flags.Bool(name, false, "")
		_ = flags.MarkHidden(name)
	}

	// Cache settings
	flags.String("cache-mode", d.CacheMode, "page cache: enabled, disabled, read_only, write_only, bypass")
	flags.String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/doccrawl)")
	flags.Duration("cache-max-age", 0, "ignore cached pages older than this (0=never expire)")

	// Fetch settings
	flags.String("fetch-mode", "", "fetch mode: static, dynamic (default: dynamic when a browser option is set)")
	flags.String("wait-for", "", `browser wait: seconds ("5"), "css:<selector>", "js:<expression>" or a selector`)
	flags.String("js-code", "", "JavaScript to run in the page after it loads")
	flags.Int("page-load-timeout", int(d.PageLoadTimeout/time.Second), "page load timeout in seconds")
	flags.Bool("wait-for-js-render", false, "scroll and expand single-page apps before capturing them")
	flags.StringArray("browser-arg", nil, "extra Chrome switch, repeatable (default: --disable-blink-features=AutomationControlled --no-sandbox)")
	flags.Bool("show-browser", false, "run Chrome with a visible window")
	flags.String("user-agent", "", "User-Agent header override")
	flags.String("max-body-size", d.MaxBodySize, "max response size for static fetches (e.g., 10MB)")

	// Bind to viper
	for name, key := range crawlFlags {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// applyFlagOverrides copies repeatable and negated flags into viper.
func applyFlagOverrides(flags *pflag.FlagSet) {
	for name, key := range listFlags {
		if flags.Changed(name) {
			values, _ := flags.GetStringArray(name)
			viper.Set(key, values)
		}
	}
	for name, key := range negatedFlags {
		if on, _ := flags.GetBool(name); on && flags.Changed(name) {
			viper.Set(key, false)
		}
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	applyFlagOverrides(cmd.Flags())

	opts, err := config.Load(viper.GetViper(), args[0])
	if err != nil {
		return err
	}
	if err := initLogger(opts.Verbose); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	outPath := opts.Output
	if outPath == "" {
		outPath, err = output.DefaultPath(opts.URL)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "No output file specified. Using generated path:\n%s\n", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	absPath, err := filepath.Abs(outPath)
	if err != nil {
		absPath = outPath
	}

	f, err := newFetcher(opts)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cf, closeCache, err := withCache(f, opts)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	c, err := crawler.New(cf, opts.Generator(), opts.PageConfig(), opts.CrawlerConfig())
	if err != nil {
		return err
	}

	file, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	md := output.NewMarkdownWriter(file, opts.Stream)
	if err := md.WriteTitle(opts.Title); err != nil {
		return err
	}

	manifest, closeManifest, err := openManifest(opts)
	if err != nil {
		return err
	}
	defer func() { _ = closeManifest() }()

	logger.Info("starting crawl",
		"url", opts.URL,
		"output", absPath,
		"fetch_mode", cf.Type(),
		"cache_mode", opts.CacheMode,
		"max_depth", opts.MaxDepth,
		"concurrency", opts.Concurrency,
		"request_delay", opts.RequestDelay)

	start := time.Now()
	errorCount := 0
	var pending []crawler.Result
	for res := range c.Crawl(ctx, opts.URL) {
		if manifest != nil {
			if err := manifest.Write(output.NewEntry(res)); err != nil {
				logger.Error("failed to write manifest entry", "error", err)
			}
		}
		if res.Error != nil {
			errorCount++
			fmt.Fprintf(stderr, "Error crawling %s: %v\n", res.URL, res.Error)
			continue
		}

		logger.Info("processing page", "n", md.Pages()+len(pending)+1, "url", res.URL, "depth", res.Depth)
		if !opts.Stream {
			pending = append(pending, res)
			continue
		}
		if err := md.WritePage(res); err != nil {
			return err
		}
	}
	for _, res := range pending {
		if err := md.WritePage(res); err != nil {
			return err
		}
	}
	if err := md.Flush(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if ctx.Err() != nil {
		logger.Warn("crawl interrupted", "pages", md.Pages())
	}
	if err := closeManifest(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	attrs := []any{"pages", md.Pages(), "errors", errorCount, "duration", time.Since(start).Round(time.Millisecond)}
	if info, err := file.Stat(); err == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(info.Size()))) //#nosec G115 -- file sizes are non-negative
	}
	logger.Info("crawl complete", attrs...)

	printSummary(stdout, stderr, md.Pages(), errorCount, absPath)
	return nil
}

func printSummary(stdout, stderr io.Writer, pages, errorCount int, path string) {
	fmt.Fprintf(stdout, "\nProcessed %d pages successfully.\n", pages)
	if errorCount > 0 {
		fmt.Fprintf(stderr, "Encountered errors on %d pages.\n", errorCount)
	}
	fmt.Fprintf(stdout, "Consolidated markdown saved to %s\n", path)
}

// newFetcher creates the fetcher for the resolved fetch mode.
func newFetcher(opts config.Options) (fetcher.Fetcher, error) {
	mode := opts.EffectiveFetchMode()
	logger.Debug("fetch mode", "mode", mode)

	switch mode {
	case config.FetchDynamic:
		if _, err := fetcher.ParseWaitFor(opts.EffectiveWaitFor()); err != nil {
			return nil, err
		}
		return fetcher.NewDynamic(opts.DynamicConfig()), nil
	case config.FetchStatic:
		cfg, err := opts.StaticConfig()
		if err != nil {
			return nil, err
		}
		return fetcher.NewStatic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (use 'static' or 'dynamic')", mode)
	}
}

// withCache wraps f in the page cache when the cache mode needs a store.
func withCache(f fetcher.Fetcher, opts config.Options) (fetcher.Fetcher, func() error, error) {
	noop := func() error { return nil }

	mode, err := cache.ParseMode(opts.CacheMode)
	if err != nil {
		return nil, noop, err
	}
	if !mode.Active() {
		return f, noop, nil
	}

	store, err := cache.Open(cache.Options{Dir: opts.CacheDir, MaxAge: opts.CacheMaxAge})
	if err != nil {
		return nil, noop, err
	}
	logger.Debug("page cache opened", "path", store.Path(), "mode", mode)
	return cache.NewFetcher(f, store, mode), store.Close, nil
}

// openManifest opens the manifest writer, or returns nil when none is wanted.
func openManifest(opts config.Options) (output.Writer, func() error, error) {
	noop := func() error { return nil }
	if opts.Manifest == "" {
		return nil, noop, nil
	}

	file, err := os.Create(opts.Manifest) //#nosec G304 -- CLI tool writes to user-specified file
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create manifest file: %w", err)
	}
	w, err := output.NewWriter(file, output.Format(opts.ManifestFormat))
	if err != nil {
		_ = file.Close()
		return nil, noop, err
	}
	closed := false
	return w, func() error {
		if closed {
			return nil
		}
		closed = true
		werr := w.Close()
		if err := file.Close(); err != nil && werr == nil {
			werr = err
		}
		return werr
	}, nil
}
