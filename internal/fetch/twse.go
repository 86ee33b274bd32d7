package fetch

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"twdash/internal/errors"
	"twdash/internal/flow"
)

// FlowFetcher retrieves the daily investor-flow summary feed.
// Implements flow.Fetcher.
type FlowFetcher struct {
	client  *Client
	feedURL string
}

// NewFlowFetcher creates a feed fetcher against the given endpoint.
func NewFlowFetcher(client *Client, feedURL string) *FlowFetcher {
	return &FlowFetcher{client: client, feedURL: feedURL}
}

// FetchDaily requests the feed for one day with "select all" scope.
func (f *FlowFetcher) FetchDaily(ctx context.Context, date time.Time) (*flow.FeedResponse, error) {
	u, err := url.Parse(f.feedURL)
	if err != nil {
		return nil, errors.NewConfigError("invalid flow feed URL", err)
	}

	q := u.Query()
	q.Set("date", date.Format("20060102"))
	q.Set("selectType", "ALL")
	q.Set("response", "json")
	u.RawQuery = q.Encode()

	body, err := f.client.Get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp flow.FeedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewParsingError("flow feed response is not valid JSON", err)
	}

	return &resp, nil
}
