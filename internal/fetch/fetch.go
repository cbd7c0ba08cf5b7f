package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alphax/wordtrack/internal/cache"
	"github.com/alphax/wordtrack/internal/retry"
)

// ErrRateLimited marks an HTTP 429 that survived every retry. Callers should
// treat it as "retry later", not as a permanent failure.
var ErrRateLimited = errors.New("rate limited")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// Is lets errors.Is(err, ErrRateLimited) match a 429.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.Code == http.StatusTooManyRequests
}

// Response is a fetched body with the metadata strategies care about.
type Response struct {
	Body        []byte
	ContentType string
	StatusCode  int
	// FinalURL is the URL after redirects.
	FinalURL string
}

// Client wraps http.Client and provides timeouts, header profiles and
// bounded retry with exponential backoff on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Headers are added to every request (e.g. Accept).
	Headers map[string]string
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
	// Retry controls attempts and backoff. Zero value means a single attempt.
	Retry retry.Policy
	// Optional on-disk cache for GET bodies with conditional revalidation.
	Cache *cache.HTTPCache
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests per client. Zero means unlimited.
	MaxConcurrent int
	// AllowedContentTypes restricts accepted media type prefixes. Empty allows any.
	AllowedContentTypes []string

	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET using the client's own User-Agent and headers.
func (c *Client) Get(ctx context.Context, rawURL string) (Response, error) {
	return c.GetWithProfile(ctx, rawURL, Profile{})
}

// GetWithProfile issues a GET whose User-Agent and headers are overridden by
// the profile where set. Transient failures (timeouts, refused connections,
// DNS errors, 5xx, 429) are retried per c.Retry.
func (c *Client) GetWithProfile(ctx context.Context, rawURL string, p Profile) (Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Response{}, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return Response{}, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	store := c.cacheFor(p)
	var etag, lastMod string
	if store != nil {
		if meta, err := store.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	var resp Response
	err = c.Retry.Do(ctx, IsRetryable, func(attempt int) error {
		r, newEtag, newLastMod, err := c.tryOnce(ctx, rawURL, p, etag, lastMod)
		if err != nil {
			log.Debug().Err(err).Str("url", rawURL).Int("attempt", attempt+1).Msg("fetch attempt failed")
			return err
		}
		if r.StatusCode == http.StatusNotModified && store != nil {
			cached, err := store.LoadBody(ctx, rawURL)
			if err == nil {
				r.Body = cached
				r.StatusCode = http.StatusOK
				if meta, err := store.LoadMeta(ctx, rawURL); err == nil && meta != nil && r.ContentType == "" {
					r.ContentType = meta.ContentType
				}
				resp = r
				return nil
			}
			// Cache lost its body; refetch unconditionally on the next attempt.
			etag, lastMod = "", ""
			return fmt.Errorf("cache body missing for %s: %w", rawURL, errRevalidate)
		}
		if store != nil && r.StatusCode == http.StatusOK {
			_ = store.Save(ctx, rawURL, r.ContentType, newEtag, newLastMod, r.Body)
		}
		resp = r
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

var errRevalidate = errors.New("revalidate")

// cacheFor returns the cache usable for a request made with p. The cache is
// keyed by URL alone, so named fingerprints bypass it to get their own
// response, and credentialed or NoStore requests are never persisted.
func (c *Client) cacheFor(p Profile) *cache.HTTPCache {
	if c.Cache == nil || p.NoStore || p.Name != "" {
		return nil
	}
	for k := range p.Headers {
		if strings.EqualFold(k, "Authorization") {
			return nil
		}
	}
	for k := range c.Headers {
		if strings.EqualFold(k, "Authorization") {
			return nil
		}
	}
	return c.Cache
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, p Profile, etag, lastMod string) (Response, string, string, error) {
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, "", "", fmt.Errorf("new request: %w", err)
	}
	ua := c.UserAgent
	if p.UserAgent != "" {
		ua = p.UserAgent
	}
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return Response{}, "", "", err
	}
	defer resp.Body.Close()

	out := Response{StatusCode: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), FinalURL: rawURL}
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = resp.Request.URL.String()
	}
	if resp.StatusCode == http.StatusNotModified {
		return out, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Response{}, "", "", &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	if !c.isAllowedContentType(out.ContentType) {
		return Response{}, "", "", fmt.Errorf("unsupported content type: %s", out.ContentType)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, "", "", fmt.Errorf("read body: %w", err)
	}
	out.Body = b
	return out, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

// IsRetryable reports whether err is a transient failure worth retrying:
// timeouts, refused connections, DNS failures, 5xx and 429.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errRevalidate) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || (se.Code >= 500 && se.Code <= 599)
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// IsRateLimited reports whether err came from an HTTP 429.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsNotFound reports whether err came from an HTTP 404.
func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (c *Client) isAllowedContentType(ct string) bool {
	if len(c.AllowedContentTypes) == 0 {
		return true
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, prefix := range c.AllowedContentTypes {
		if strings.HasPrefix(ct, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
