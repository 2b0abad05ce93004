package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ResourceFetcher downloads a remote resource for inlining.
type ResourceFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over plain HTTP with a response size cap so one huge
// image cannot balloon a relayed message.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", url, f.maxBytes)
	}
	return body, nil
}
