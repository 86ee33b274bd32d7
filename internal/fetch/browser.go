package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"twdash/internal/errors"
)

// BrowserFetcher retrieves a ranking page through a headless browser.
// It exists for the days the source starts refusing plain HTTP clients;
// the DOM comes back already decoded, so no Big5 step applies here.
// Implements PageFetcher.
type BrowserFetcher struct {
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewBrowserFetcher creates a browser-backed page fetcher.
func NewBrowserFetcher(userAgent string, timeout time.Duration, logger *slog.Logger) *BrowserFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserFetcher{
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger.With(slog.String("component", "fetch.browser")),
	}
}

// FetchPage navigates to the page and returns the rendered document.
func (b *BrowserFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(b.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var markup string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.OuterHTML("html", &markup),
	)
	if err != nil {
		return "", errors.NewNetworkError("browser fetch failed", err)
	}

	b.logger.Debug("browser fetch complete",
		slog.String("url", pageURL),
		slog.Int("bytes", len(markup)),
		slog.Duration("elapsed", time.Since(start)))

	return markup, nil
}
