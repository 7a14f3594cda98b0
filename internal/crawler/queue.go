// Package crawler runs a best-first documentation crawl and turns each page
// into Markdown.
package crawler

import (
	"container/heap"
	"net/url"
	"strings"
	"sync"
)

// Item is a queued URL with its depth and relevance score.
type Item struct {
	URL   string
	Depth int
	Score float64

	seq int
}

// URLQueue is a best-first frontier: Pop returns the highest scored URL,
// then the shallowest, then the earliest added. URLs are deduplicated for the
// lifetime of the queue, so a popped URL is never queued again.
type URLQueue struct {
	mu      sync.Mutex
	items   itemHeap
	visited map[string]bool
	seq     int
}

// NewURLQueue creates a new URL queue.
func NewURLQueue() *URLQueue {
	return &URLQueue{
		visited: make(map[string]bool),
	}
}

// Add queues a URL if it has not been seen before.
func (q *URLQueue) Add(rawURL string, depth int, score float64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	normalized := normalizeURL(rawURL)
	if normalized == "" || q.visited[normalized] {
		return false
	}

	q.visited[normalized] = true
	q.seq++
	heap.Push(&q.items, &Item{URL: normalized, Depth: depth, Score: score, seq: q.seq})
	return true
}

// Pop removes and returns the best queued URL.
func (q *URLQueue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return Item{}, false
	}
	return *heap.Pop(&q.items).(*Item), true
}

// Len returns the number of items in the queue.
func (q *URLQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// IsVisited checks if a URL has been queued or marked.
func (q *URLQueue) IsVisited(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visited[normalizeURL(rawURL)]
}

// MarkVisited marks a URL as visited without adding to queue.
func (q *URLQueue) MarkVisited(rawURL string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if normalized := normalizeURL(rawURL); normalized != "" {
		q.visited[normalized] = true
	}
}

type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score > h[j].Score
	}
	if h[i].Depth != h[j].Depth {
		return h[i].Depth < h[j].Depth
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(*Item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// normalizeURL normalizes a URL for comparison. Only absolute http(s) URLs
// are accepted.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Host = strings.ToLower(parsed.Host)

	// Remove trailing slash from path (unless it's just "/")
	if len(parsed.Path) > 1 && parsed.Path[len(parsed.Path)-1] == '/' {
		parsed.Path = parsed.Path[:len(parsed.Path)-1]
		parsed.RawPath = ""
	}

	return parsed.String()
}

// IsSameDomain checks if two URLs are on the same host, ignoring case and a
// leading "www.".
func IsSameDomain(url1, url2 string) bool {
	parsed1, err := url.Parse(url1)
	if err != nil {
		return false
	}
	parsed2, err := url.Parse(url2)
	if err != nil {
		return false
	}
	return bareHost(parsed1) == bareHost(parsed2)
}

func bareHost(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
