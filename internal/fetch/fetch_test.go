package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alphax/wordtrack/internal/cache"
	"github.com/alphax/wordtrack/internal/retry"
)

var fastRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "wordtrack-test", Retry: fastRetry, PerRequestTimeout: 2 * time.Second}
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ContentType == "" || len(resp.Body) == 0 || resp.StatusCode != 200 {
		t.Fatalf("expected content type, body and 200; got %+v", resp)
	}
}

func TestGet_RetryOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(502)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := &Client{Retry: fastRetry, PerRequestTimeout: 2 * time.Second}
	if _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestGet_NoRetryOn404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &Client{Retry: fastRetry, PerRequestTimeout: 2 * time.Second}
	_, err := c.Get(context.Background(), srv.URL)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if IsRetryable(err) {
		t.Fatalf("404 must not be retryable")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestGet_RateLimitedIsDistinguishable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{Retry: fastRetry, PerRequestTimeout: 2 * time.Second}
	_, err := c.Get(context.Background(), srv.URL)
	if !IsRateLimited(err) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected exhaustion after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGet_ConnectionRefusedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := &Client{Retry: fastRetry, PerRequestTimeout: time.Second}
	_, err := c.Get(context.Background(), addr)
	if err == nil {
		t.Fatalf("expected error for closed server")
	}
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected connection failures to be retried until exhaustion, got %v", err)
	}
}

func TestGetWithProfile_OverridesHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "default-ua", Headers: map[string]string{"Accept": "text/plain"}}
	p := Profile{UserAgent: "profile-ua", Headers: map[string]string{"Accept": "text/html"}}
	if _, err := c.GetWithProfile(context.Background(), srv.URL, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUA != "profile-ua" || gotAccept != "text/html" {
		t.Fatalf("profile not applied: ua=%q accept=%q", gotUA, gotAccept)
	}
}

func TestGet_Conditional304_UsesCache(t *testing.T) {
	var calls int
	etag := `"abc123"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/html")
		if calls == 1 {
			w.Header().Set("ETag", etag)
			_, _ = w.Write([]byte("first"))
			return
		}
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		fmt.Fprintln(w, "unexpected")
	}))
	defer srv.Close()

	c := &Client{Retry: retry.Policy{MaxAttempts: 1}, PerRequestTimeout: 2 * time.Second, Cache: &cache.HTTPCache{Dir: t.TempDir()}}

	r1, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("first get error: %v", err)
	}
	if string(r1.Body) != "first" {
		t.Fatalf("unexpected body1: %q", string(r1.Body))
	}
	r2, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second get error: %v", err)
	}
	if string(r2.Body) != "first" || r2.StatusCode != 200 {
		t.Fatalf("expected cached body, got %q (%d)", string(r2.Body), r2.StatusCode)
	}
}

func TestGetWithProfile_NamedProfilesSkipRevalidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.Header.Get("If-None-Match") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("body for " + r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	c := &Client{Retry: retry.Policy{MaxAttempts: 1}, PerRequestTimeout: 2 * time.Second, Cache: &cache.HTTPCache{Dir: t.TempDir()}}
	if _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("plain get: %v", err)
	}
	for _, p := range Profiles[:2] {
		resp, err := c.GetWithProfile(context.Background(), srv.URL, p)
		if err != nil {
			t.Fatalf("%s: %v", p.Name, err)
		}
		if want := "body for " + p.UserAgent; string(resp.Body) != want {
			t.Fatalf("%s: got %q, want %q", p.Name, resp.Body, want)
		}
	}
}

func TestGetWithProfile_CredentialedResponsesNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"secret"`)
		_, _ = w.Write([]byte(`{"nm":"private"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := &Client{Retry: retry.Policy{MaxAttempts: 1}, PerRequestTimeout: 2 * time.Second, Cache: &cache.HTTPCache{Dir: dir}}
	bearer := Profile{Headers: map[string]string{"Authorization": "Bearer tok"}}
	if _, err := c.GetWithProfile(context.Background(), srv.URL, bearer); err != nil {
		t.Fatalf("bearer get: %v", err)
	}
	if _, err := c.GetWithProfile(context.Background(), srv.URL+"/other", Profile{NoStore: true}); err != nil {
		t.Fatalf("no-store get: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no cache entries, found %d", len(entries))
	}
}

func TestGet_RejectsNonHTTP(t *testing.T) {
	c := &Client{Retry: retry.Policy{MaxAttempts: 1}, PerRequestTimeout: time.Second}
	if _, err := c.Get(context.Background(), "file:///etc/hosts"); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestGet_ContentTypeGating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c := &Client{Retry: retry.Policy{MaxAttempts: 1}, AllowedContentTypes: []string{"text/"}}
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for unsupported content type")
	}
}

func TestGet_RedirectLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/next", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := &Client{Retry: retry.Policy{MaxAttempts: 1}, RedirectMaxHops: 1}
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected redirect limit error")
	}
}

func TestGet_MaxConcurrent(t *testing.T) {
	var inFlight, maxObserved int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		curr := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxObserved)
			if curr <= prev || atomic.CompareAndSwapInt32(&maxObserved, prev, curr) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
		atomic.AddInt32(&inFlight, -1)
	}))
	defer srv.Close()

	c := &Client{Retry: retry.Policy{MaxAttempts: 1}, PerRequestTimeout: 2 * time.Second, MaxConcurrent: 2}
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _ = c.Get(context.Background(), srv.URL)
		}()
	}
	close(start)
	wg.Wait()

	if atomic.LoadInt32(&maxObserved) > 2 {
		t.Fatalf("expected max concurrency <= 2, got %d", maxObserved)
	}
}
