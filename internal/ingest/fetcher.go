package ingest

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/venari/internal/common"
)

const (
	fetchMaxRetries  = 3
	fetchBaseBackoff = 500 * time.Millisecond
	fetchMaxJitter   = 250 * time.Millisecond

	// maxFeedBodyBytes caps one feed response. Boards with thousands of
	// postings stay well under this.
	maxFeedBodyBytes = 32 << 20
)

// retryableStatus holds the upstream statuses worth another attempt.
// Everything else in the 4xx/5xx range is a permanent feed error.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true, // 408
	http.StatusTooEarly:            true, // 425
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// FeedError is a permanent per-feed failure. The run records it and moves
// on to the next feed.
type FeedError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FeedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("feed %s failed: %v", e.URL, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

// Fetcher retrieves feed documents over HTTP with a shared rate limit and
// bounded retries for transient upstream failures.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewFetcher creates a fetcher. ratePerSecond bounds upstream requests
// across all concurrent feed fetches in the process.
func NewFetcher(timeout time.Duration, ratePerSecond int, logger arbor.ILogger) *Fetcher {
	if timeout <= 0 {
		timeout = 75 * time.Second
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 10
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
		logger:  logger,
	}
}

// Fetch retrieves one feed document. Transient statuses are retried with
// exponential backoff and jitter; other non-2xx statuses return a *FeedError
// immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= fetchMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := fetchBaseBackoff << (attempt - 1)
			backoff += time.Duration(rand.Int63n(int64(fetchMaxJitter)))
			f.logger.Debug().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying feed fetch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("feed fetch exhausted retries: %w", lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &FeedError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", common.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		// Network-level failures (DNS, reset, client timeout) are retryable.
		return nil, true, &FeedError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		ferr := &FeedError{URL: url, StatusCode: resp.StatusCode}
		return nil, retryableStatus[resp.StatusCode], ferr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return nil, true, &FeedError{URL: url, Err: err}
	}
	return data, false, nil
}
