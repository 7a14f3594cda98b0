package cache

import (
	"context"

	"github.com/jmylchreest/doccrawl/internal/logger"
	"github.com/jmylchreest/doccrawl/pkg/fetcher"
)

// PageStore is the subset of Store used by CachingFetcher.
type PageStore interface {
	Get(ctx context.Context, url string) (fetcher.Content, bool, error)
	Put(ctx context.Context, content fetcher.Content) error
}

// CachingFetcher serves pages from a PageStore according to Mode and stores
// successful fetches. Store failures are logged and never fail a fetch.
type CachingFetcher struct {
	next  fetcher.Fetcher
	store PageStore
	mode  Mode
}

// NewFetcher wraps next. With an inactive mode or a nil store, Fetch goes
// straight to next.
func NewFetcher(next fetcher.Fetcher, store PageStore, mode Mode) *CachingFetcher {
	return &CachingFetcher{next: next, store: store, mode: mode}
}

// Fetch implements fetcher.Fetcher.
func (f *CachingFetcher) Fetch(ctx context.Context, url string, opts fetcher.Options) (fetcher.Content, error) {
	if f.store != nil && f.mode.CanRead() {
		content, ok, err := f.store.Get(ctx, url)
		switch {
		case err != nil:
			logger.Warn("cache read failed", "url", url, "error", err)
		case ok:
			logger.Debug("cache hit", "url", url)
			return content, nil
		default:
			logger.Debug("cache miss", "url", url)
		}
	}

	content, err := f.next.Fetch(ctx, url, opts)
	if err != nil {
		return content, err
	}

	if f.store != nil && f.mode.CanWrite() {
		if err := f.store.Put(ctx, content); err != nil {
			logger.Warn("cache write failed", "url", url, "error", err)
		}
	}
	return content, nil
}

// Close closes the wrapped fetcher. The store is owned by the caller.
func (f *CachingFetcher) Close() error {
	return f.next.Close()
}

// Type returns the wrapped fetcher's type.
func (f *CachingFetcher) Type() string {
	return f.next.Type()
}
