// Package fetch wraps outbound HTTP for vendor collection: bounded per-request
// timeout, capped retries, linearly-scaled backoff between attempts.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher is the capability vendor adapters consume. Tests substitute a stub.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type Client struct {
	http *resty.Client
}

// New builds a client. retryWait scales linearly with the attempt number:
// wait, 2*wait, 3*wait.
func New(timeout time.Duration, retryCount int, retryWait time.Duration) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetHeader("User-Agent", "car-intel/1.0")
	c.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		attempt := 1
		if resp != nil && resp.Request != nil {
			attempt = resp.Request.Attempt
		}
		return retryWait * time.Duration(attempt), nil
	})
	c.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err != nil || resp.StatusCode() >= 500
	})
	return &Client{http: c}
}

// Get fetches a URL and returns the body. Exhausted retries surface as an
// error; the caller decides whether that fails the brand or triggers fallback.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}
