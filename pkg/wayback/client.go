// Package wayback is a minimal client for the Internet Archive's CDX and
// screenshot endpoints.
package wayback

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

const (
	defaultCDXBaseURL      = "https://web.archive.org/cdx/search/cdx"
	defaultScreenshotsBase = "https://web.archive.org/__wb/screenshot"
)

// Snapshot is one archived capture row from the CDX index.
type Snapshot struct {
	Timestamp string // e.g. 20210131093000
	Original  string // the archived URL
}

// Screenshot is a rendered capture image.
type Screenshot struct {
	Data        []byte
	ContentType string
}

// Ext returns the file extension matching the image content type.
func (s *Screenshot) Ext() string {
	if strings.Contains(s.ContentType, "png") {
		return ".png"
	}
	return ".jpg"
}

// Client queries the Wayback Machine.
type Client interface {
	// Snapshots lists captures of target with HTTP status 200, collapsed to
	// one per day, newest first, at most limit rows.
	Snapshots(ctx context.Context, target string, limit int) ([]Snapshot, error)
	// Fetch downloads the rendered screenshot for a capture. Returns nil
	// (no error) when the archive has no rendered image for it.
	Fetch(ctx context.Context, snap Snapshot) (*Screenshot, error)
}

// APIError is a non-2xx HTTP response from the archive.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wayback: status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURLs overrides the CDX and screenshot base URLs.
func WithBaseURLs(cdx, screenshots string) Option {
	return func(c *httpClient) {
		c.cdxBaseURL = cdx
		c.screenshotsBase = screenshots
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	cdxBaseURL      string
	screenshotsBase string
	http            *http.Client
}

// NewClient creates a Wayback Machine client. No credentials are required.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		cdxBaseURL:      defaultCDXBaseURL,
		screenshotsBase: defaultScreenshotsBase,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Snapshots(ctx context.Context, target string, limit int) ([]Snapshot, error) {
	q := url.Values{}
	q.Set("url", target)
	q.Set("output", "json")
	q.Set("fl", "timestamp,original,statuscode,mimetype")
	q.Set("filter", "statuscode:200")
	q.Set("collapse", "timestamp:8")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cdxBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "wayback: create cdx request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "wayback: send cdx request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "wayback: read cdx response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// The CDX JSON form is an array of rows; the first row is the header.
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, eris.Wrap(err, "wayback: unmarshal cdx response")
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] == "timestamp" {
		start = 1
	}

	var snaps []Snapshot
	for _, row := range rows[start:] {
		if len(row) < 2 {
			continue
		}
		snaps = append(snaps, Snapshot{Timestamp: row[0], Original: row[1]})
	}
	return snaps, nil
}

func (c *httpClient) Fetch(ctx context.Context, snap Snapshot) (*Screenshot, error) {
	shotURL := fmt.Sprintf("%s/%s/%s", c.screenshotsBase, snap.Timestamp, snap.Original)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shotURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "wayback: create screenshot request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "wayback: send screenshot request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // no rendered capture for this snapshot
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return nil, nil // archive served a placeholder page, not an image
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "wayback: read screenshot body")
	}
	return &Screenshot{Data: data, ContentType: ct}, nil
}
