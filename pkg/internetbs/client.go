// Package internetbs is a minimal client for the internet.bs registrar API.
package internetbs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.internet.bs"

// Client performs internet.bs domain operations.
type Client interface {
	// Check queries registration availability for a domain.
	Check(ctx context.Context, domain string) (*CheckResponse, error)
}

// CheckResponse is the JSON response of the Domain/Check endpoint.
type CheckResponse struct {
	TransactID string `json:"transactid"`
	Status     string `json:"status"`  // AVAILABLE, UNAVAILABLE, FAILURE
	Product    string `json:"product"` // echoed domain
	Message    string `json:"message"` // failure detail
}

// Available reports whether the registrar marked the domain available.
func (r *CheckResponse) Available() bool {
	return strings.EqualFold(r.Status, "available")
}

// Taken reports whether the registrar marked the domain registered.
func (r *CheckResponse) Taken() bool {
	return strings.EqualFold(r.Status, "unavailable")
}

// Failure reports an API-level failure (malformed domain, bad credentials).
func (r *CheckResponse) Failure() bool {
	return strings.EqualFold(r.Status, "failure")
}

// APIError is a non-2xx HTTP response from the registrar.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("internetbs: status %d: %s", e.StatusCode, e.Body)
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
	apiKey   string
	password string
	baseURL  string
	http     *http.Client
}

// NewClient creates an internet.bs API client.
func NewClient(apiKey, password string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		password: password,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Check(ctx context.Context, domain string) (*CheckResponse, error) {
	q := url.Values{}
	q.Set("ApiKey", c.apiKey)
	q.Set("Password", c.password)
	q.Set("Domain", domain)
	q.Set("ResponseFormat", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Domain/Check?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "internetbs: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "internetbs: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "internetbs: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result CheckResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "internetbs: unmarshal response")
	}

	return &result, nil
}
