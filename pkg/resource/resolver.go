package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNonBinary is the cause recorded when a fetch returns an empty or
	// textual payload where an image was expected.
	ErrNonBinary = errors.New("non-binary response")

	// ErrTooLarge is the cause recorded when a payload exceeds the size limit.
	ErrTooLarge = errors.New("resource exceeds size limit")
)

// Resolver fetches every distinct URL of an export concurrently and collects
// the outcomes in a Cache.
type Resolver struct {
	fetcher     Fetcher
	logger      hclog.Logger
	concurrency int
	timeout     time.Duration
	maxBytes    int64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used to report failed resources.
func WithLogger(logger hclog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithConcurrency bounds the number of fetches in flight. Zero means every
// URL is fetched at once.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		r.concurrency = n
	}
}

// WithTimeout bounds each individual fetch.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithMaxBytes rejects payloads larger than n bytes. Zero disables the check.
func WithMaxBytes(n int64) ResolverOption {
	return func(r *Resolver) {
		r.maxBytes = n
	}
}

// NewResolver returns a Resolver that retrieves resources with fetcher.
func NewResolver(fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("resolver")
	return r
}

// ResolveAll fetches every distinct URL in urls and returns the completed
// cache. A failed fetch is recorded as a Payload carrying an
// exporterr.ErrResourceFetch error and never fails the call. If ctx is
// canceled before every URL has settled, ResolveAll returns
// exporterr.ErrCanceled and no cache.
func (r *Resolver) ResolveAll(ctx context.Context, urls []string) (*Cache, error) {
	distinct := dedupe(urls)
	results := make([]Payload, len(distinct))

	g := new(errgroup.Group)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, url := range distinct {
		g.Go(func() error {
			results[i] = r.resolve(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, exporterr.Wrap("ResolveAll", exporterr.ErrCanceled, err)
	}

	cache := NewCache(results...)
	for _, p := range results {
		if p.Err != nil {
			r.logger.Warn("resource unavailable, using placeholder", "url", p.URL, "error", p.Err)
		}
	}
	r.logger.Debug("resources resolved", "total", len(results), "failed", len(cache.Failed()))
	return cache, nil
}

func (r *Resolver) resolve(ctx context.Context, url string) Payload {
	if err := ctx.Err(); err != nil {
		return failure(url, err)
	}

	fetchCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	data, err := r.fetcher.Fetch(fetchCtx, url)
	if err != nil {
		return failure(url, err)
	}
	if len(data) == 0 {
		return failure(url, ErrNonBinary)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return failure(url, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), r.maxBytes))
	}

	contentType := http.DetectContentType(data)
	if strings.HasPrefix(contentType, "text/") {
		return failure(url, fmt.Errorf("%w: %s", ErrNonBinary, contentType))
	}

	return Payload{URL: url, Data: data, ContentType: contentType}
}

func failure(url string, err error) Payload {
	return Payload{
		URL: url,
		Err: &exporterr.Error{Op: "Fetch", Kind: exporterr.ErrResourceFetch, Msg: url, Err: err},
	}
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
