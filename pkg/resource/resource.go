// Package resource resolves the external resources a document references
// (images, for now) into an in-memory cache that lives for one export.
//
// Resolution is the only concurrent step of an export: every distinct URL is
// fetched in parallel, individual failures are recorded instead of aborting,
// and the caller reads the completed cache once ResolveAll returns.
package resource

import (
	"context"
	"sort"
	"sync"
)

// Fetcher retrieves the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Payload is the outcome of resolving one URL. Exactly one of Data or Err is
// meaningful.
type Payload struct {
	URL         string
	Data        []byte
	ContentType string
	Err         error
}

// OK reports whether the resource was resolved.
func (p Payload) OK() bool {
	return p.Err == nil
}

// Lookup is the read-only view of a cache handed to serializers.
type Lookup interface {
	Lookup(url string) (Payload, bool)
}

// Cache maps source URLs to payloads. It is filled once by a Resolver and is
// read-only afterwards.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Payload
}

// NewCache returns a cache holding payloads.
func NewCache(payloads ...Payload) *Cache {
	c := &Cache{entries: make(map[string]Payload, len(payloads))}
	for _, p := range payloads {
		c.entries[p.URL] = p
	}
	return c
}

// Lookup returns the payload for url.
func (c *Cache) Lookup(url string) (Payload, bool) {
	if c == nil {
		return Payload{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[url]
	return p, ok
}

// Len returns the number of URLs in the cache.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Failed returns the sorted URLs whose resolution failed.
func (c *Cache) Failed() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var failed []string
	for url, p := range c.entries {
		if p.Err != nil {
			failed = append(failed, url)
		}
	}
	sort.Strings(failed)
	return failed
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Payload)
}
