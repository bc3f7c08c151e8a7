// Package httpfetch fetches document resources over HTTP(S).
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

// Config configures a Fetcher.
type Config struct {
	// TimeoutSeconds bounds each HTTP attempt.
	TimeoutSeconds int `hcl:"timeout_seconds,optional"`

	// MaxRetries is the number of retries after the first attempt for
	// transient failures (network errors, 429 and 5xx responses).
	MaxRetries int `hcl:"max_retries,optional"`

	// MaxBytes limits the size of a response body. Zero means unlimited.
	MaxBytes int64 `hcl:"max_bytes,optional"`

	// UserAgent is sent with every request.
	UserAgent string `hcl:"user_agent,optional"`

	// Headers are added to every request (e.g. an authorization header for
	// an internal image host).
	Headers map[string]string `hcl:"headers,optional"`
}

// SetDefaults sets default values for optional fields.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.UserAgent == "" {
		c.UserAgent = "hermes-export"
	}
}

// Fetcher retrieves resources with HTTP GET requests.
type Fetcher struct {
	client     *http.Client
	cfg        Config
	logger     hclog.Logger
	newBackOff func() backoff.BackOff
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithBackOff sets the retry schedule. It is mostly useful in tests.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(f *Fetcher) {
		f.newBackOff = newBackOff
	}
}

// New returns a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	cfg.SetDefaults()
	f := &Fetcher{
		cfg:    cfg,
		logger: hclog.NewNullLogger(),
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.Named("httpfetch")
	return f
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ErrTextResponse is returned when the server answers with a textual body
// (usually an HTML error or login page) instead of the resource.
var ErrTextResponse = errors.New("server returned a text response")

// Fetch implements resource.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	b := backoff.WithContext(
		backoff.WithMaxRetries(f.newBackOff(), uint64(f.cfg.MaxRetries)),
		ctx,
	)

	attempt := 0
	data, err := backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		data, err := f.get(ctx, url)
		if err != nil && attempt <= f.cfg.MaxRetries {
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) {
				f.logger.Debug("retrying fetch", "url", url, "attempt", attempt, "error", err)
			}
		}
		return data, err
	}, b)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", url, err)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "image/*, application/octet-stream;q=0.8, */*;q=0.5")
	for k, v := range f.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	if isText(resp.Header.Get("Content-Type")) {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrTextResponse, resp.Header.Get("Content-Type")))
	}

	body := io.Reader(resp.Body)
	if f.cfg.MaxBytes > 0 {
		if resp.ContentLength > f.cfg.MaxBytes {
			return nil, backoff.Permanent(fmt.Errorf("response of %d bytes exceeds limit of %d", resp.ContentLength, f.cfg.MaxBytes))
		}
		body = io.LimitReader(resp.Body, f.cfg.MaxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if f.cfg.MaxBytes > 0 && int64(len(data)) > f.cfg.MaxBytes {
		return nil, backoff.Permanent(fmt.Errorf("response exceeds limit of %d bytes", f.cfg.MaxBytes))
	}
	return data, nil
}

func isText(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/")
}
