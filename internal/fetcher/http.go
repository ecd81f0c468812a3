package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/hypelist/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	// Timeout bounds each attempt, body read included.
	Timeout time.Duration
	// Retry controls retries of transient failures. Zero value uses
	// two attempts with the resilience defaults.
	Retry resilience.RetryConfig
	// RatePerHost caps requests per second to one host.
	RatePerHost rate.Limit
}

// HTTPFetcher implements Fetcher using net/http with retry and per-host
// rate limiting. Only idempotent GETs go through it.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hypelist/1.0"
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 2
	}
	if opts.RatePerHost <= 0 {
		opts.RatePerHost = 5
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetcher", "download")
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.RatePerHost, 1)
		f.limiters[host] = lim
	}
	return lim
}

// Download fetches the URL and returns the response body. 429 and 5xx
// responses and network timeouts are retried; other failures are not.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, eris.Wrapf(err, "download: invalid url %q", rawURL)
	}
	lim := f.limiterFor(rawURL)

	return resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (io.ReadCloser, error) {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "download")
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			statusErr := eris.Errorf("download: unexpected status %d from %s", resp.StatusCode, rawURL)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				zap.L().Warn("transient http status",
					zap.String("url", rawURL),
					zap.Int("status", resp.StatusCode),
				)
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}

		return resp.Body, nil
	})
}

// DownloadBytes fetches the URL and reads the whole body.
func (f *HTTPFetcher) DownloadBytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "download: read body")
	}
	return data, nil
}
