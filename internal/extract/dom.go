package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// removeSelector lists non-content regions stripped before candidate
// containers are measured.
const removeSelector = "script, style, noscript, nav, footer, aside, header, iframe, form, svg, template"

// ContainerSelectors are the content candidates; the one with the most text
// wins, earlier selectors winning ties. FallbackSelector is used when no
// candidate holds enough text.
var ContainerSelectors = []string{"main", "article", "[role=main]", "#content", ".content", ".post", ".document"}

const FallbackSelector = "body"

// DOMStrategy parses fetched HTML and takes the largest content container.
type DOMStrategy struct {
	Fetcher Getter
}

func (DOMStrategy) Method() Method { return MethodDOMText }

func (s DOMStrategy) Extract(ctx context.Context, t Target) (Result, error) {
	resp, err := s.Fetcher.GetWithProfile(ctx, t.URL, t.Profile)
	if err != nil {
		return Result{}, failure(MethodDOMText, "fetch", err)
	}
	text, selector, err := TextFromHTML(resp.Body)
	if err != nil {
		return Result{}, failure(MethodDOMText, "parse html", err)
	}
	if len(text) < MinContentChars {
		return Result{}, failure(MethodDOMText, fmt.Sprintf("content too short (%d chars)", len(text)), nil)
	}
	return NewResult(text, MethodDOMText, "container="+selector), nil
}

// TextFromHTML strips boilerplate from an HTML document and returns the text
// of its largest content container together with the selector that matched.
func TextFromHTML(body []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	doc.Find(removeSelector).Remove()
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return len(s.Nodes) > 0 && isBoilerplateContainer(s.Nodes[0])
	}).Remove()

	best, bestSel := "", ""
	for _, sel := range ContainerSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			for _, n := range s.Nodes {
				if text := nodeText(n); len(text) > len(best) {
					best, bestSel = text, sel
				}
			}
		})
	}
	if len(best) >= MinContentChars {
		return best, bestSel, nil
	}
	if body := doc.Find(FallbackSelector).First(); len(body.Nodes) > 0 {
		if text := nodeText(body.Nodes[0]); len(text) > len(best) {
			best, bestSel = text, FallbackSelector
		}
	}
	return best, bestSel, nil
}
