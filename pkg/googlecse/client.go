// Package googlecse is a minimal client for the Google Custom Search JSON API.
package googlecse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Client performs Custom Search queries.
type Client interface {
	// SiteResultCount returns the estimated number of indexed pages for a
	// site: query on the given domain.
	SiteResultCount(ctx context.Context, domain string) (int, error)
}

// searchResponse carries only the fields requested via the fields mask.
type searchResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
}

// APIError is a non-2xx HTTP response from the search API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("googlecse: status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	cx      string
	baseURL string
	http    *http.Client
}

// NewClient creates a Custom Search API client for the given key and
// search engine ID.
func NewClient(apiKey, cx string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		cx:      cx,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SiteResultCount(ctx context.Context, domain string) (int, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.cx)
	q.Set("q", "site:"+domain)
	q.Set("num", "1")
	q.Set("fields", "searchInformation(totalResults)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, eris.Wrap(err, "googlecse: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "googlecse: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "googlecse: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return 0, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, eris.Wrap(err, "googlecse: unmarshal response")
	}

	total := result.SearchInformation.TotalResults
	if total == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, eris.Wrapf(err, "googlecse: parse totalResults %q", total)
	}
	return n, nil
}
