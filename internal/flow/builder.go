// Package flow builds the identifier → flow-record lookup for one trading
// day, walking backward across calendar days when the requested day carries
// no data.
package flow

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"twdash/pkg/contracts/domain"
)

// StatOK is the feed's success sentinel.
const StatOK = "OK"

// DefaultMaxLookback bounds the backward walk. Seven days covers weekends
// plus public holidays; anything longer signals an extended market closure
// and is surfaced as exhaustion rather than retried further.
const DefaultMaxLookback = 7

// FeedResponse is the structured feed payload for one trading day. Each
// data row is positional: identifier, name, then buy/sell/net share counts.
// Slots beyond the fifth belong to other investor categories and are
// ignored here.
type FeedResponse struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// Usable reports whether the response carries data for its day.
func (r *FeedResponse) Usable() bool {
	return r != nil && r.Stat == StatOK && len(r.Data) > 0
}

// Fetcher retrieves one day's investor-flow feed. Transport, pacing and
// encoding belong to the implementation, not to this package.
type Fetcher interface {
	FetchDaily(ctx context.Context, date time.Time) (*FeedResponse, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, date time.Time) (*FeedResponse, error)

// FetchDaily implements Fetcher.
func (f FetcherFunc) FetchDaily(ctx context.Context, date time.Time) (*FeedResponse, error) {
	return f(ctx, date)
}

// walkState is the backward date-search state.
type walkState int

const (
	walkSearching walkState = iota
	walkFound
	walkExhausted
)

// Builder converts feed responses into the flow lookup.
type Builder struct {
	logger      *slog.Logger
	maxLookback int
}

// NewBuilder creates a flow lookup builder with the default lookback bound.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger:      logger.With(slog.String("component", "flow")),
		maxLookback: DefaultMaxLookback,
	}
}

// Build requests the feed for date and assembles the lookup. When the
// requested day yields no usable response it walks backward one calendar day
// at a time, up to the lookback bound. The returned date is the day that
// actually produced data, in MM/DD display form. Exhaustion is a soft
// failure: an empty lookup and an empty date, never an error.
func (b *Builder) Build(ctx context.Context, fetcher Fetcher, date time.Time) (map[string]domain.FlowRecord, string) {
	state := walkSearching
	current := date
	attempt := 0

	var resp *FeedResponse
	for state == walkSearching {
		r, err := fetcher.FetchDaily(ctx, current)
		if err != nil {
			b.logger.Warn("flow feed request failed",
				slog.String("date", current.Format("20060102")),
				slog.String("error", err.Error()))
		}
		if err == nil && r.Usable() {
			resp = r
			state = walkFound
			break
		}
		if err == nil {
			b.logger.Info("no flow data for date, trying previous day",
				slog.String("date", current.Format("20060102")),
				slog.String("stat", statOf(r)))
		}
		if attempt >= b.maxLookback {
			state = walkExhausted
			break
		}
		attempt++
		current = current.AddDate(0, 0, -1)
	}

	if state == walkExhausted {
		b.logger.Warn("flow lookup exhausted, proceeding without flow data",
			slog.String("requested_date", date.Format("20060102")),
			slog.Int("attempts", attempt))
		return map[string]domain.FlowRecord{}, ""
	}

	lookup := make(map[string]domain.FlowRecord, len(resp.Data))
	for _, row := range resp.Data {
		if len(row) < 5 {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		lookup[code] = domain.NewFlowRecord(
			code,
			strings.TrimSpace(row[1]),
			parseShares(row[2]),
			parseShares(row[3]),
			parseShares(row[4]),
		)
	}

	actualDate := current.Format("01/02")
	b.logger.Info("flow lookup built",
		slog.Int("records", len(lookup)),
		slog.String("actual_date", current.Format("20060102")),
		slog.Int("fallback_days", attempt))

	return lookup, actualDate
}

func statOf(r *FeedResponse) string {
	if r == nil {
		return ""
	}
	return r.Stat
}

// parseShares parses a share count, tolerating thousands separators.
// Unparsable values default to zero.
func parseShares(val string) int64 {
	val = strings.ReplaceAll(strings.TrimSpace(val), ",", "")
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
