package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// nodeText collects readable text below n. Block elements are separated by
// newlines; boilerplate subtrees that survived selector removal are skipped.
func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n, false)
	return normalizeWhitespace(b.String())
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		if isBoilerplateContainer(n) {
			return
		}
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "template", "svg":
			return
		case "pre", "code":
			inPre = true
		case "br", "hr", "ul", "ol", "tr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "div", "section", "blockquote", "td", "th":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.ReplaceAll(data, "\t", " ")
			data = strings.ReplaceAll(data, "\r", " ")
		}
		b.WriteString(data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
			b.WriteString("\n\n")
		case "li", "div", "section", "pre", "code", "td", "th":
			b.WriteString("\n")
		}
	}
}

var boilerplateMarkers = []string{"cookie", "consent", "gdpr", "newsletter-signup", "share-buttons"}

// isBoilerplateContainer reports elements whose id, class, role or data-*
// attributes mark them as cookie/consent banners or share widgets.
func isBoilerplateContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, m := range boilerplateMarkers {
			if strings.Contains(val, m) {
				return true
			}
		}
	}
	return false
}

// normalizeWhitespace collapses space runs inside lines and keeps at most
// one blank line between blocks.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
