package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// WaitTimeout is how long the browser waits for the first card to render.
	WaitTimeout = 10 * time.Second

	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// BrowserFetcher renders the search page in headless Chrome and waits for
// the listing cards to appear before taking the document markup.
type BrowserFetcher struct {
	url          string
	waitSelector string
	waitTimeout  time.Duration
	headless     bool
}

// BrowserOption configures a BrowserFetcher.
type BrowserOption func(*BrowserFetcher)

// WithWaitTimeout overrides WaitTimeout.
func WithWaitTimeout(d time.Duration) BrowserOption {
	return func(b *BrowserFetcher) {
		if d > 0 {
			b.waitTimeout = d
		}
	}
}

// WithHeadless toggles headless mode (on by default).
func WithHeadless(headless bool) BrowserOption {
	return func(b *BrowserFetcher) {
		b.headless = headless
	}
}

// NewBrowserFetcher creates a fetcher that waits for the card selector of schema.
func NewBrowserFetcher(schema Schema, opts ...BrowserOption) *BrowserFetcher {
	b := &BrowserFetcher{
		url:          SearchURL,
		waitSelector: schema.CardSelector(),
		waitTimeout:  WaitTimeout,
		headless:     true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fetch navigates to the search page for query and returns the rendered
// markup. If no card renders within the wait timeout the page is treated as
// empty and "" is returned without an error.
func (b *BrowserFetcher) Fetch(ctx context.Context, query string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(browserUserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(QueryURL(b.url, query))); err != nil {
		return "", fmt.Errorf("navigating to search page: %w", err)
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, b.waitTimeout)
	defer cancelWait()

	err := chromedp.Run(waitCtx, chromedp.WaitVisible(b.waitSelector, chromedp.ByQuery))
	empty, err := waitOutcome(ctx, err, b.waitSelector)
	if err != nil {
		return "", err
	}
	if empty {
		return "", nil
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading rendered page: %w", err)
	}

	return html, nil
}

// waitOutcome classifies the result of waiting for the first card. Running
// out of wait time while parent is still live means the page has no cards.
func waitOutcome(parent context.Context, err error, selector string) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return true, nil
	}
	return false, fmt.Errorf("waiting for %s: %w", selector, err)
}
