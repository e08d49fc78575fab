package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultMaxImageBytes = 10 << 20
	maxFetchAttempts     = 3
)

// ImageFetcher downloads encoded image bytes
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPImageFetcher implements ImageFetcher with bounded retries
type HTTPImageFetcher struct {
	client     *http.Client
	maxBytes   int64
	retryDelay time.Duration
}

// FetcherOption customizes an HTTPImageFetcher
type FetcherOption func(*HTTPImageFetcher)

// WithMaxBytes caps the accepted response size
func WithMaxBytes(n int64) FetcherOption {
	return func(h *HTTPImageFetcher) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithTimeout sets the overall per-request timeout
func WithTimeout(d time.Duration) FetcherOption {
	return func(h *HTTPImageFetcher) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithRetryDelay sets the base backoff between attempts
func WithRetryDelay(d time.Duration) FetcherOption {
	return func(h *HTTPImageFetcher) {
		h.retryDelay = d
	}
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(opts ...FetcherOption) *HTTPImageFetcher {
	// Connection pooling sized for a handful of photos per request
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableCompression:     false,
		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes:   defaultMaxImageBytes,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FetchImage downloads the image body. Network errors and 5xx responses are
// retried up to maxFetchAttempts times with linear backoff; 4xx responses are not.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	var lastErr error

	attempts := 0
	for attempts < maxFetchAttempts {
		if attempts > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempts) * h.retryDelay):
			}
		}

		attempts++
		data, retry, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d %s: %w", attempts, pluralAttempts(attempts), lastErr)
}

func pluralAttempts(n int) string {
	if n == 1 {
		return "attempt"
	}
	return "attempts"
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, imageURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Face-Palette/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if resp.ContentLength > h.maxBytes {
		return nil, false, fmt.Errorf("image exceeds %d bytes", h.maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, false, fmt.Errorf("image exceeds %d bytes", h.maxBytes)
	}
	return data, false, nil
}
