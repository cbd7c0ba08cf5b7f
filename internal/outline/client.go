package outline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alphax/wordtrack/internal/fetch"
)

// Page is one page of a node's children.
type Page struct {
	Nodes      []Node `json:"nodes"`
	NextCursor string `json:"nextCursor"`
}

// ChildLister returns one page of children for a parent node. An empty cursor
// requests the first page. Non-2xx responses are reported as
// *fetch.StatusError so callers can tell 404 and 429 apart.
type ChildLister interface {
	Children(ctx context.Context, parentID, cursor string) (Page, error)
}

// Client talks to the outline children endpoint:
// GET {BaseURL}/nodes?parent_id={id}[&cursor=...] with a bearer token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request. Zero means no extra bound.
	PerRequestTimeout time.Duration
}

// NewClient returns a Client. A nil httpClient gets a private one with a 30s
// timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, HTTPClient: httpClient}
}

// Children fetches a single page of children.
func (c *Client) Children(ctx context.Context, parentID, cursor string) (Page, error) {
	if c.BaseURL == "" {
		return Page{}, errors.New("outline client: empty base URL")
	}
	q := url.Values{}
	q.Set("parent_id", parentID)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := c.BaseURL + "/nodes?" + q.Encode()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Page{}, &fetch.StatusError{URL: endpoint, Code: resp.StatusCode}
	}
	var page Page
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("decode children of %s: %w", parentID, err)
	}
	return page, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	if c.HTTPClient != nil {
		c.HTTPClient.CloseIdleConnections()
	}
	return nil
}
