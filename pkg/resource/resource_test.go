package resource

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

func TestResolveAll(t *testing.T) {
	var calls sync.Map
	fetcher := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		n, _ := calls.LoadOrStore(url, new(int32))
		atomic.AddInt32(n.(*int32), 1)
		switch url {
		case "https://x/ok.png":
			return pngBytes, nil
		case "https://x/html":
			return []byte("<html><body>not found</body></html>"), nil
		case "https://x/empty":
			return nil, nil
		default:
			return nil, errors.New("status 404")
		}
	})

	cache, err := NewResolver(fetcher).ResolveAll(context.Background(), []string{
		"https://x/ok.png", "https://x/missing.png", "https://x/ok.png", "https://x/html", "https://x/empty", "",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cache.Len())

	ok, found := cache.Lookup("https://x/ok.png")
	require.True(t, found)
	assert.True(t, ok.OK())
	assert.Equal(t, "image/png", ok.ContentType)
	assert.Equal(t, pngBytes, ok.Data)

	missing, found := cache.Lookup("https://x/missing.png")
	require.True(t, found)
	assert.False(t, missing.OK())
	assert.True(t, errors.Is(missing.Err, exporterr.ErrResourceFetch))

	html, _ := cache.Lookup("https://x/html")
	assert.True(t, errors.Is(html.Err, ErrNonBinary))

	empty, _ := cache.Lookup("https://x/empty")
	assert.True(t, errors.Is(empty.Err, ErrNonBinary))

	assert.Equal(t, []string{"https://x/empty", "https://x/html", "https://x/missing.png"}, cache.Failed())

	n, _ := calls.Load("https://x/ok.png")
	assert.EqualValues(t, 1, atomic.LoadInt32(n.(*int32)), "duplicate urls are fetched once")

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	_, found = cache.Lookup("https://x/ok.png")
	assert.False(t, found)
}

func TestResolveAll_Concurrent(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	started := make(chan struct{}, 3)

	fetcher := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		started <- struct{}{}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return pngBytes, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := NewResolver(fetcher).ResolveAll(context.Background(), []string{"a:1", "a:2", "a:3"})
		assert.NoError(t, err)
	}()

	// All three fetches must be in flight before any completes.
	for i := 0; i < 3; i++ {
		<-started
	}
	close(release)
	<-done
	assert.EqualValues(t, 3, peak)
}

func TestResolveAll_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	fetcher := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return pngBytes, nil
	})

	cache, err := NewResolver(fetcher, WithConcurrency(2)).
		ResolveAll(context.Background(), []string{"a:1", "a:2", "a:3", "a:4", "a:5"})
	require.NoError(t, err)
	assert.Equal(t, 5, cache.Len())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestResolveAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})

	cache, err := NewResolver(fetcher).ResolveAll(ctx, []string{"https://x/a.png", "https://x/b.png"})
	require.Error(t, err)
	assert.Nil(t, cache)
	assert.True(t, errors.Is(err, exporterr.ErrCanceled))
}

func TestResolveAll_TimeoutAndMaxBytes(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		if url == "https://x/slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return append(append([]byte{}, pngBytes...), make([]byte, 64)...), nil
	})

	cache, err := NewResolver(fetcher, WithTimeout(10*time.Millisecond), WithMaxBytes(32)).
		ResolveAll(context.Background(), []string{"https://x/slow", "https://x/big"})
	require.NoError(t, err)

	slow, _ := cache.Lookup("https://x/slow")
	assert.True(t, errors.Is(slow.Err, context.DeadlineExceeded))

	big, _ := cache.Lookup("https://x/big")
	assert.True(t, errors.Is(big.Err, ErrTooLarge))
}

func TestRouter(t *testing.T) {
	router := NewRouter()
	router.Handle("HTTPS", FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return []byte("remote:" + url), nil
	}))
	assert.Equal(t, 2, router.Schemes())

	data, err := router.Fetch(context.Background(), "https://x/a.png")
	require.NoError(t, err)
	assert.Equal(t, "remote:https://x/a.png", string(data))

	data, err = router.Fetch(context.Background(), "data:text/plain;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = router.Fetch(context.Background(), "ftp://x/a.png")
	assert.ErrorContains(t, err, `no fetcher for scheme "ftp"`)

	_, err = router.Fetch(context.Background(), "data:;base64,%%%")
	assert.Error(t, err)
}

func TestLimit(t *testing.T) {
	base := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return pngBytes, nil
	})
	assert.NotNil(t, Limit(nil, base))
	assert.Nil(t, NewLimiter(0))

	limited := Limit(rate.NewLimiter(rate.Every(time.Hour), 1), base)
	_, err := limited.Fetch(context.Background(), "a:1")
	require.NoError(t, err)

	// The bucket is empty and the context expires first.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = limited.Fetch(ctx, "a:2")
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	a := Placeholder()
	b := Placeholder()
	assert.Equal(t, a, b)

	cfg, err := png.DecodeConfig(bytes.NewReader(a))
	require.NoError(t, err)
	w, h := PlaceholderSize()
	assert.Equal(t, w, cfg.Width)
	assert.Equal(t, h, cfg.Height)
}
