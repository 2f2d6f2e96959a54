// Package http provides the HTTP implementation of shl.Fetcher plus a
// sitemap-based coverage probe for the product catalog.
package http

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	shl "github.com/arnnv/shl-recommendation-system"
	"golang.org/x/time/rate"
)

// DefaultFetchTimeout is the default timeout for a single HTTP request.
const DefaultFetchTimeout = 30 * time.Second

// DefaultRetryDelay is the fixed inter-retry delay. It is deliberately
// distinct from the pre-request jitter: retries back off harder than
// ordinary pacing.
const DefaultRetryDelay = 5 * time.Second

// DefaultRetryDelays returns the inter-retry delays: three retries at a
// fixed 5s apart.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{DefaultRetryDelay, DefaultRetryDelay, DefaultRetryDelay}
}

// DefaultJitter returns a randomized pre-request delay in [300ms, 800ms).
// The catalog site penalizes bursty access, so every request is preceded by
// an unpredictable pause.
func DefaultJitter() time.Duration {
	return time.Duration(300+rand.IntN(500)) * time.Millisecond
}

// identityHeaders is the fixed browser identity sent with every request.
// The catalog serves a trimmed page to clients without them.
var identityHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept-Language": "en-US,en;q=0.9",
}

// Ensure Fetcher implements shl.Fetcher at compile time.
var _ shl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves catalog HTML over plain HTTP with identity headers,
// randomized pre-request jitter, optional requests-per-second pacing, and
// bounded retry on transient failures.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	retryDelays []time.Duration
	jitter      func() time.Duration
	limiter     *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRetryDelays overrides the inter-retry delays. The number of delays
// determines the number of retries. Useful for testing without waiting for
// real backoff.
func WithRetryDelays(delays []time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelays = delays
	}
}

// WithJitter overrides the pre-request jitter source. Useful for testing.
func WithJitter(jitter func() time.Duration) Option {
	return func(f *Fetcher) {
		f.jitter = jitter
	}
}

// WithRequestsPerSecond adds a token-bucket cap underneath the jitter so
// that even retries respect per-host pacing. Zero disables the cap.
func WithRequestsPerSecond(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		retryDelays: DefaultRetryDelays(),
		jitter:      DefaultJitter,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL. It retries on
// network errors, timeouts, HTTP 429/5xx, and empty response bodies. After
// exhausting retries it returns a single EUNAVAILABLE error; other HTTP
// failure classes return immediately with their own codes. Callers branch
// on the returned error, never on panics.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	maxAttempts := len(f.retryDelays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt == 0 {
			if err := f.sleep(ctx, f.jitter()); err != nil {
				return "", err
			}
		} else {
			if err := f.sleep(ctx, f.retryDelays[attempt-1]); err != nil {
				return "", err
			}
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		html, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return html, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", shl.Errorf(shl.EUNAVAILABLE, "fetch %s failed after %d attempts: %s",
		url, maxAttempts, shl.ErrorMessage(lastErr))
}

// fetchOnce performs a single GET. The bool result reports whether the
// failure class is transient.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, shl.Errorf(shl.EINVALID, "invalid request for %s: %v", url, err)
	}
	for k, v := range identityHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, shl.Errorf(shl.EUNAVAILABLE, "request %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, shl.Errorf(shl.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode == http.StatusNotFound:
		return "", false, shl.Errorf(shl.ENOTFOUND, "HTTP 404 for %s", url)
	case resp.StatusCode != http.StatusOK:
		return "", false, shl.Errorf(shl.EINVALID, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, shl.Errorf(shl.EUNAVAILABLE, "read body of %s: %v", url, err)
	}

	// An empty body is a transient failure; the catalog occasionally
	// returns 200 with no content under load.
	if len(bytes.TrimSpace(body)) == 0 {
		return "", true, shl.Errorf(shl.EUNAVAILABLE, "empty response body from %s", url)
	}

	return string(body), false, nil
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
