// Package origin fetches authoritative data from the upstream timing API
// when neither cache layer has a valid entry.
package origin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the upstream API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL, e.g. "https://api.openf1.org".
// A zero timeout leaves the request unbounded; cancellation then rests
// entirely on the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch requests /v1/{entity} with the given query parameters and returns
// the raw response body. Any transport error or non-2xx status is an error;
// the caching layers never persist anything on that path.
func (c *Client) Fetch(ctx context.Context, entityType string, params map[string]string) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}

	u := c.baseURL + "/v1/" + entityType
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", entityType, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: upstream returned %d", entityType, resp.StatusCode)
	}
	return body, nil
}
