package crawler

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// crawlableExtensions lists the path extensions worth fetching. An
// empty extension means a directory-style URL.
var crawlableExtensions = map[string]bool{
	"":      true,
	".html": true,
	".htm":  true,
	".txt":  true,
}

// Normalize rewrites rawURL into the canonical form used as a frontier
// key: fragment dropped, scheme and host lowercased, trailing slashes
// trimmed from the path. Two spellings of the same page normalize to
// the same string, so the frontier's uniqueness constraint holds.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// Scope is the crawl boundary derived from the seed URL: same host,
// and a path at or under the seed's path.
//
// Design decision: Scope checks operate on normalized URLs only
// because:
//  1. Normalization already folds the spellings apart, so a plain
//     prefix check is enough here.
//  2. The same string that passes Allows becomes the frontier key, so
//     scope and storage can never disagree about a page's identity.
type Scope struct {
	host       string
	pathPrefix string
	prefix     string
}

// NewScope derives the crawl boundary from seedURL. The seed must be an
// absolute http or https URL.
func NewScope(seedURL string) (*Scope, error) {
	normalized, err := Normalize(seedURL)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q: seed must be http or https", u.Scheme)
	}
	return &Scope{
		host:       u.Host,
		pathPrefix: u.Path,
		prefix:     u.Scheme + "://" + u.Host + u.Path,
	}, nil
}

// Prefix returns the canonical seed prefix, scheme through path,
// without a trailing slash.
func (s *Scope) Prefix() string {
	return s.prefix
}

// Allows reports whether a normalized URL falls inside the crawl
// boundary: http or https, the seed's host, and a path equal to or
// nested under the seed's path. Path comparison is segment-aligned, so
// a seed of /docs does not admit /docs-old.
func (s *Scope) Allows(normalizedURL string) bool {
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host != s.host {
		return false
	}
	if s.pathPrefix == "" {
		return true
	}
	return u.Path == s.pathPrefix || strings.HasPrefix(u.Path, s.pathPrefix+"/")
}

// Crawlable reports whether a normalized URL looks like a page worth
// fetching: no extension, .html, .htm, or .txt. Everything else
// (images, archives, stylesheets) is skipped without an attempt.
func (s *Scope) Crawlable(normalizedURL string) bool {
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return false
	}
	return crawlableExtensions[strings.ToLower(path.Ext(u.Path))]
}
