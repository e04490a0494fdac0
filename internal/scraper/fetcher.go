package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	SearchURL = "https://eplus.jp/sf/search"
	UserAgent = "eplus-events/1.0 (github.com/pfrederiksen/eplus-events)"
	Timeout   = 30 * time.Second

	// maxPageBytes caps how much of a response body is read.
	maxPageBytes = 10 << 20
)

// Fetcher retrieves the markup of the search result page for a query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (string, error)
}

// QueryURL returns the search result URL for keyword.
func QueryURL(base, keyword string) string {
	return base + "?keyword=" + url.QueryEscape(keyword)
}

// HTTPFetcher fetches the search page with a plain GET request
type HTTPFetcher struct {
	client    *http.Client
	url       string
	userAgent string
}

// NewHTTPFetcher creates a new HTTPFetcher instance
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		url:       SearchURL,
		userAgent: UserAgent,
	}
}

// Fetch downloads the search result page for query
func (f *HTTPFetcher) Fetch(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, QueryURL(f.url, query), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	return string(body), nil
}

// FileFetcher replays markup saved to a local file. The query is ignored.
type FileFetcher struct {
	path string
}

// NewFileFetcher creates a FileFetcher reading path
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

// Fetch returns the file contents
func (f *FileFetcher) Fetch(_ context.Context, _ string) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("reading markup file: %w", err)
	}
	return string(data), nil
}
