package resource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vincent-petithory/dataurl"
	"golang.org/x/time/rate"
)

// Router dispatches fetches to a Fetcher by URL scheme.
type Router struct {
	routes map[string]Fetcher
}

// NewRouter returns a Router that serves data: URLs itself.
func NewRouter() *Router {
	r := &Router{routes: make(map[string]Fetcher)}
	r.Handle("data", DataURLFetcher{})
	return r
}

// Handle routes URLs with the given scheme to f.
func (r *Router) Handle(scheme string, f Fetcher) {
	r.routes[strings.ToLower(scheme)] = f
}

// Schemes returns the number of registered schemes.
func (r *Router) Schemes() int {
	return len(r.routes)
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	scheme := schemeOf(rawURL)
	f, ok := r.routes[scheme]
	if !ok {
		return nil, fmt.Errorf("no fetcher for scheme %q", scheme)
	}
	return f.Fetch(ctx, rawURL)
}

func schemeOf(rawURL string) string {
	// data: URLs may be too large or too loosely encoded for url.Parse.
	if i := strings.IndexByte(rawURL, ':'); i > 0 && strings.EqualFold(rawURL[:i], "data") {
		return "data"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// DataURLFetcher decodes RFC 2397 data URLs without any I/O.
type DataURLFetcher struct{}

// Fetch implements Fetcher.
func (DataURLFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	du, err := dataurl.DecodeString(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data url: %w", err)
	}
	return du.Data, nil
}

type limitedFetcher struct {
	limiter *rate.Limiter
	fetcher Fetcher
}

// Limit wraps f so that fetches wait for a token from l. A nil limiter
// returns f unchanged.
func Limit(l *rate.Limiter, f Fetcher) Fetcher {
	if l == nil {
		return f
	}
	return &limitedFetcher{
		limiter: l,
		fetcher: f,
	}
}

func (f *limitedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return f.fetcher.Fetch(ctx, url)
}

// NewLimiter returns a limiter allowing perSecond fetches per second with an
// equal burst, or nil when perSecond is not positive.
func NewLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}
