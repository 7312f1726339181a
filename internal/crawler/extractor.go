package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Extractor pulls links and visible text out of a fetched page.
type Extractor interface {
	// Extract parses body as HTML. pageURL anchors relative links.
	Extract(pageURL string, body []byte) (*Extraction, error)
}

// Extraction is everything the crawler takes from one parsed page.
type Extraction struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links are the href targets of anchor tags, resolved to absolute
	// URLs. They are exactly as discovered: scope filtering and
	// normalization happen later.
	Links []string

	// Text is the page's visible text, one text node per line. Script,
	// style, and template content is excluded so the word tally counts
	// prose, not code.
	Text string
}

// skipSubtrees are elements whose text content is never visible prose.
var skipSubtrees = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// HTMLExtractor extracts links and text with golang.org/x/net/html.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type HTMLExtractor struct{}

// NewHTMLExtractor creates an extractor. It is stateless and safe to
// share across pages.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract implements the Extractor interface.
func (e *HTMLExtractor) Extract(pageURL string, body []byte) (*Extraction, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}

	result := &Extraction{
		Links: make([]string, 0),
	}
	var lines []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipSubtrees[n.Data] {
				return
			}
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					if resolved := resolveURL(base, href); resolved != "" {
						result.Links = append(result.Links, resolved)
					}
				}
			}
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	result.Text = strings.Join(lines, "\n")
	return result, nil
}

// resolveURL resolves a relative href against the page URL.
//
// Design decision: We resolve URLs rather than storing them as-is
// because:
//  1. Makes deduplication easier
//  2. The frontier only understands absolute URLs
//  3. Reduces ambiguity in results
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
