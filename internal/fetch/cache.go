package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/xlatombet/abt/internal/document"
)

// DefaultCacheTTL is how long a fetched page is reused.
const DefaultCacheTTL = 5 * time.Minute

// Cache reuses pages fetched within TTL. The schedule and card commands
// both read the JRA race page, so a run downloads it once.
type Cache struct {
	Fetcher Fetcher
	TTL     time.Duration

	mu       sync.Mutex
	pages    map[string]document.Node
	cachedAt map[string]time.Time
	now      func() time.Time
}

// NewCache wraps f with a page cache.
func NewCache(f Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		Fetcher:  f,
		TTL:      ttl,
		pages:    make(map[string]document.Node),
		cachedAt: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Fetch returns the cached page for url, fetching it when absent or expired.
// Failures are never cached.
func (c *Cache) Fetch(ctx context.Context, url string) (document.Node, error) {
	if doc := c.get(url); doc != nil {
		return doc, nil
	}
	doc, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.set(url, doc)
	return doc, nil
}

func (c *Cache) get(url string) document.Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.pages[url]
	if !ok {
		return nil
	}
	if c.now().Sub(c.cachedAt[url]) > c.TTL {
		delete(c.pages, url)
		delete(c.cachedAt, url)
		return nil
	}
	return doc
}

// set stores doc and drops every expired page.
func (c *Cache) set(url string, doc document.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for u, at := range c.cachedAt {
		if now.Sub(at) > c.TTL {
			delete(c.pages, u)
			delete(c.cachedAt, u)
		}
	}
	c.pages[url] = doc
	c.cachedAt[url] = now
}

// Size returns the number of cached pages.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}
