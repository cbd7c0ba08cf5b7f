package extract

import (
	"net/url"
	"strings"
)

// SourceType classifies a document host.
type SourceType int

const (
	SourceGeneric SourceType = iota
	// SourceOutline is a shared page of a hierarchical outline tool.
	SourceOutline
	// SourceGoogleDoc is a hosted word-processor document with a text export.
	SourceGoogleDoc
)

func (s SourceType) String() string {
	switch s {
	case SourceOutline:
		return "outline"
	case SourceGoogleDoc:
		return "document"
	default:
		return "generic"
	}
}

// OutlineHosts are hostnames (subdomains included) treated as outline shares.
var OutlineHosts = []string{"workflowy.com"}

// DocumentHosts are hostnames with a plain-text export endpoint.
var DocumentHosts = []string{"docs.google.com"}

// DetectSource picks the source type from the URL's hostname.
func DetectSource(rawURL string) SourceType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return SourceGeneric
	}
	host := strings.ToLower(u.Hostname())
	if hostMatches(host, OutlineHosts) {
		return SourceOutline
	}
	if hostMatches(host, DocumentHosts) {
		return SourceGoogleDoc
	}
	return SourceGeneric
}

func hostMatches(host string, list []string) bool {
	for _, h := range list {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// ShareID returns the last path segment of an outline share link
// ("/s/<slug>/<id>" or "/s/<id>").
func ShareID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" && p != "s" {
			return p
		}
	}
	return ""
}

// DefaultExportURL derives a plain-text export endpoint. Hosted documents
// expose /export?format=txt; plain .txt/.md URLs are their own export.
func DefaultExportURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	switch DetectSource(rawURL) {
	case SourceGoogleDoc:
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] != "d" || parts[i+1] == "" {
				continue
			}
			path := append(append([]string{}, parts[:i+2]...), "export")
			return u.Scheme + "://" + u.Host + "/" + strings.Join(path, "/") + "?format=txt", true
		}
		return "", false
	case SourceGeneric:
		p := strings.ToLower(u.Path)
		if strings.HasSuffix(p, ".txt") || strings.HasSuffix(p, ".md") {
			return rawURL, true
		}
	}
	return "", false
}

// DefaultStructuredURL derives the JSON tree endpoint for a source. Outline
// shares are served by the host's initialization endpoint; any other URL
// ending in .json is fetched as is.
func DefaultStructuredURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if DetectSource(rawURL) == SourceOutline {
		id := ShareID(rawURL)
		if id == "" {
			return "", false
		}
		q := url.Values{}
		q.Set("share_id", id)
		q.Set("client_version", "21")
		return u.Scheme + "://" + u.Host + "/get_initialization_data?" + q.Encode(), true
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".json") {
		return rawURL, true
	}
	return "", false
}
