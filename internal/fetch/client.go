// Package fetch holds the external data-source collaborators: a shared HTTP
// client for the ranking pages and the flow feed, and an alternative
// browser-backed page fetcher.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"twdash/internal/config"
	"twdash/internal/errors"
)

// PageFetcher retrieves the decoded text of a ranking page snapshot.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// Client is the shared HTTP collaborator for both sources. Requests are
// paced by a rate limiter instead of fixed sleeps, and TLS verification is
// relaxed: both source hosts serve certificates that lack a Subject Key
// Identifier and fail strict verification.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a fetch client from the sources configuration.
func NewClient(cfg config.SourcesConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.UserAgent,
		logger:    logger.With(slog.String("component", "fetch")),
	}
}

// Get performs a paced GET and returns the raw response body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewNetworkError("request pacing interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewNetworkError("failed to build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(fmt.Sprintf("GET %s failed", rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewNetworkError(fmt.Sprintf("GET %s returned status %d", rawURL, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError("failed to read response body", err)
	}

	c.logger.Debug("fetched",
		slog.String("url", rawURL),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)))

	return body, nil
}

// FetchPage retrieves a ranking page and decodes it from Big5, which is the
// encoding the source still serves. Implements PageFetcher.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	body, err := c.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	decoded, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), body)
	if err != nil {
		return "", errors.NewParsingError("failed to decode page from Big5", err)
	}

	return string(decoded), nil
}
