package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jmylchreest/doccrawl/internal/version"
	"github.com/jmylchreest/doccrawl/pkg/fetcher"
)

// DefaultDir returns the cache directory under the XDG cache home.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, version.AppName)
}

// Store persists fetched pages keyed by requested URL.
type Store struct {
	db     *sql.DB
	dbPath string
	maxAge time.Duration
}

// Options configures a Store.
type Options struct {
	// Dir holds pages.db. Empty means DefaultDir().
	Dir string
	// MaxAge expires entries older than this. Zero keeps entries forever.
	MaxAge time.Duration
}

// Open opens or creates the page database.
func Open(opts Options) (*Store, error) {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "pages.db")

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db, dbPath: dbPath, maxAge: opts.MaxAge}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	url TEXT PRIMARY KEY,
	final_url TEXT,
	status_code INTEGER,
	content_type TEXT,
	title TEXT,
	html TEXT NOT NULL,
	links TEXT,
	fetched_at INTEGER NOT NULL -- unix milliseconds
);
CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);
`

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached page for url. ok is false on a miss or an expired entry.
func (s *Store) Get(ctx context.Context, url string) (content fetcher.Content, ok bool, err error) {
	var (
		finalURL, contentType, title, links sql.NullString
		status                              sql.NullInt64
		fetchedMillis                       int64
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT final_url, status_code, content_type, title, html, links, fetched_at
		FROM pages WHERE url = ?`, url).
		Scan(&finalURL, &status, &contentType, &title, &content.HTML, &links, &fetchedMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return fetcher.Content{}, false, nil
	}
	if err != nil {
		return fetcher.Content{}, false, fmt.Errorf("failed to read cached page: %w", err)
	}
	fetchedAt := time.UnixMilli(fetchedMillis)
	if s.maxAge > 0 && time.Since(fetchedAt) > s.maxAge {
		return fetcher.Content{}, false, nil
	}

	content.URL = url
	content.FinalURL = finalURL.String
	content.StatusCode = int(status.Int64)
	content.ContentType = contentType.String
	content.Title = title.String
	content.FetchedAt = fetchedAt
	content.FromCache = true
	if links.Valid && links.String != "" {
		if err := json.Unmarshal([]byte(links.String), &content.Links); err != nil {
			return fetcher.Content{}, false, fmt.Errorf("failed to decode cached links: %w", err)
		}
	}
	return content, true, nil
}

// Put stores or replaces the page for content.URL.
func (s *Store) Put(ctx context.Context, content fetcher.Content) error {
	links, err := json.Marshal(content.Links)
	if err != nil {
		return fmt.Errorf("failed to encode links: %w", err)
	}
	fetchedAt := content.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (url, final_url, status_code, content_type, title, html, links, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			final_url = excluded.final_url,
			status_code = excluded.status_code,
			content_type = excluded.content_type,
			title = excluded.title,
			html = excluded.html,
			links = excluded.links,
			fetched_at = excluded.fetched_at`,
		content.URL, content.FinalURL, content.StatusCode, content.ContentType,
		content.Title, content.HTML, string(links), fetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store page: %w", err)
	}
	return nil
}

// Count returns the number of cached pages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// Prune deletes entries fetched before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE fetched_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}
