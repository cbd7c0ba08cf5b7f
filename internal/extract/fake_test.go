package extract

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alphax/wordtrack/internal/fetch"
)

// fakeGetter serves canned responses keyed by URL.
type fakeGetter struct {
	pages    map[string]fetch.Response
	requests []string
	profiles []fetch.Profile
}

func (f *fakeGetter) GetWithProfile(_ context.Context, url string, p fetch.Profile) (fetch.Response, error) {
	f.requests = append(f.requests, url)
	f.profiles = append(f.profiles, p)
	r, ok := f.pages[url]
	if !ok {
		return fetch.Response{}, &fetch.StatusError{URL: url, Code: http.StatusNotFound}
	}
	if r.StatusCode >= 400 {
		return fetch.Response{}, &fetch.StatusError{URL: url, Code: r.StatusCode}
	}
	return r, nil
}

func page(contentType, body string) fetch.Response {
	return fetch.Response{Body: []byte(body), ContentType: contentType, StatusCode: 200}
}

func htmlPage(body string) fetch.Response {
	return page("text/html; charset=utf-8", fmt.Sprintf("<!doctype html><html><head><title>t</title></head><body>%s</body></html>", body))
}
