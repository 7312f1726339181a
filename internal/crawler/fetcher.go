package crawler

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Fetcher retrieves one page over the network.
type Fetcher interface {
	// Fetch downloads the page at rawURL. A non-nil error is either a
	// *FetchError carrying its retry classification, or a bare context
	// error when the crawl is shutting down.
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// FetchResult is a successfully downloaded page.
type FetchResult struct {
	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// ContentType is the response media type, lowercased and stripped
	// of parameters, e.g. "text/html".
	ContentType string

	// Body is the response body, capped at the fetcher's size limit.
	Body []byte
}

// HTML reports whether the page should go through the HTML extractor.
// Anything else the fetcher admits is plain text.
func (r *FetchResult) HTML() bool {
	return r.ContentType == contentTypeHTML
}

// Default fetcher settings.
const (
	// DefaultUserAgent identifies the crawler to servers.
	DefaultUserAgent = "wordcrawl/1.0 (+https://github.com/wordcrawl/wordcrawl)"

	// DefaultFetchTimeout bounds one request, connection to last body
	// byte.
	DefaultFetchTimeout = 5 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024
)

const (
	contentTypeHTML = "text/html"
	contentTypeText = "text/plain"
)

// HTTPFetcher fetches pages with net/http and classifies every failure
// as transient or permanent.
//
// Transient: connection errors, timeouts, and HTTP 429, 500, 502, 503,
// 504. Permanent: every other non-2xx status and responses that are
// neither HTML nor plain text.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithFetchTimeout bounds one request end to end.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithMaxBodySize caps how many bytes of a response body are read.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// NewHTTPFetcher creates a fetcher with default settings.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: DefaultFetchTimeout,
		},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements the Fetcher interface.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FailPermanent, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html, text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		// A canceled context means the crawl is shutting down, not
		// that the server misbehaved.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{Kind: FailTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, f.statusError(resp)
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if contentType != contentTypeHTML && contentType != contentTypeText {
		return nil, &FetchError{
			Kind:       FailPermanent,
			StatusCode: resp.StatusCode,
			Err:        &UnsupportedContentTypeError{ContentType: contentType},
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{Kind: FailTransient, Err: fmt.Errorf("read body: %w", err)}
	}

	return &FetchResult{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// statusError maps a non-2xx response to a tagged FetchError.
func (f *HTTPFetcher) statusError(resp *http.Response) error {
	fe := &FetchError{Kind: FailPermanent, StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		fe.Kind = FailTransient
		fe.RetryAfter = retryAfter(resp.Header.Get("Retry-After"))
	}
	return fe
}

// retryAfter parses a Retry-After header value, either delay seconds or
// an HTTP date. Absent, malformed, or elapsed values yield 0.
func retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// mediaType lowercases a Content-Type header and strips parameters such
// as charset. An unparseable header comes back as-is, trimmed.
func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return mt
}
