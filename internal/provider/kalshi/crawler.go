package kalshi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"

	"kalshi-trades/internal/errs"
	"kalshi-trades/internal/model"
)

const (
	DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"
	tradesPath     = "/markets/trades"
	userAgent      = "kalshi-trade-downloader/1.0 (+https://kalshi.com/trade-data)"

	// DefaultLimit is the page size requested from the API.
	DefaultLimit = 500
	// MaxLimit is the largest page size the API accepts.
	MaxLimit = 1000

	DefaultRequestTimeout = 30 * time.Second
	DefaultRetryDelay     = 10 * time.Second
	DefaultMaxAttempts    = 8
	DefaultPageDelay      = 50 * time.Millisecond
	DefaultMaxPages       = 10000
)

// Options configures a Crawler. A zero BaseURL, Limit, RequestTimeout,
// MaxAttempts or MaxPages falls back to its default; zero delays mean no
// wait. A negative MaxPages disables the per-day page ceiling.
type Options struct {
	BaseURL            string
	Limit              int
	RequestTimeout     time.Duration
	RetryDelay         time.Duration
	MaxAttempts        int
	PageDelay          time.Duration
	MaxPages           int
	BypassProxy        bool
	InsecureSkipVerify bool
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.PageDelay < 0 {
		o.PageDelay = 0
	}
	if o.MaxPages == 0 {
		o.MaxPages = DefaultMaxPages
	}
	return o
}

// Crawler fetches trades from the public trades endpoint. It holds no state
// between calls besides its HTTP client, so one Crawler serves every worker.
type Crawler struct {
	client *resty.Client
	opts   Options
	logger *slog.Logger
}

// NewCrawler constructs a Crawler with its own HTTP client.
func NewCrawler(opts Options) (*Crawler, error) {
	opts = opts.withDefaults()
	if opts.Limit > MaxLimit {
		return nil, errs.Newf(errs.CodeInvalidParameter, "limit %d above maximum %d", opts.Limit, MaxLimit)
	}
	return &Crawler{
		client: newRestClient(opts),
		opts:   opts,
	}, nil
}

// Options returns the effective options after defaults.
func (c *Crawler) Options() Options {
	return c.opts
}

// SetLogger sets the logger used for retry and page diagnostics. Set it
// before the crawler is shared between goroutines.
func (c *Crawler) SetLogger(l *slog.Logger) {
	c.logger = l
}

func (c *Crawler) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Close closes idle connections.
func (c *Crawler) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func (c *Crawler) pageParams(w model.Window, cursor string) map[string]string {
	params := map[string]string{
		"min_ts": strconv.FormatInt(w.MinTS, 10),
		"max_ts": strconv.FormatInt(w.MaxTS, 10),
		"limit":  strconv.Itoa(c.opts.Limit),
	}
	if cursor != "" {
		params["cursor"] = cursor
	}
	return params
}

// getPage runs one GET and classifies the outcome.
func (c *Crawler) getPage(ctx context.Context, params map[string]string) (*TradesPage, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(tradesPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.Wrap(errs.CodeNetwork, "request trades page", err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusOK:
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return nil, errs.Newf(errs.CodeServerStatus, "API status %d: %s", status, truncate(resp.Body(), 200))
	default:
		return nil, errs.Newf(errs.CodeClientStatus, "API status %d: %s", status, truncate(resp.Body(), 200))
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || body[0] != '{' {
		return nil, errs.Newf(errs.CodeMalformedResponse, "expected JSON object, got %q", truncate(body, 80))
	}
	var page TradesPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errs.Wrap(errs.CodeMalformedResponse, "parse trades page", err)
	}
	return &page, nil
}

// FetchPage fetches one page of trades for w, starting at cursor (empty for
// the first page). Network failures, 429 and 5xx responses are retried up to
// MaxAttempts attempts in total, waiting RetryDelay*n before the n-th retry.
// Anything else fails immediately.
func (c *Crawler) FetchPage(ctx context.Context, w model.Window, cursor string) (*TradesPage, error) {
	if err := w.Validate(); err != nil {
		return nil, errs.Wrap(errs.CodeInvalidParameter, "invalid window", err)
	}
	params := c.pageParams(w, cursor)

	var page *TradesPage
	attempt := 0
	op := func() error {
		attempt++
		p, err := c.getPage(ctx, params)
		if err != nil {
			if errs.Retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		page = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log().Warn("request failed, retrying",
			"min_ts", w.MinTS, "error", err, "wait", wait,
			"attempt", attempt, "max_attempts", c.opts.MaxAttempts)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(c.opts.RetryDelay), uint64(c.opts.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if errs.Retryable(err) {
			return nil, errs.Wrapf(errs.CodeRetriesExhausted, err, "page request failed after %d attempts", attempt)
		}
		return nil, err
	}
	return page, nil
}

// FetchDay walks the cursor chain of day's UTC window and returns every
// trade in page order. Pages are requested strictly one after another with
// PageDelay between them. Any page error aborts the day; no partial result
// is returned.
func (c *Crawler) FetchDay(ctx context.Context, day time.Time) (*model.DayTrades, error) {
	w := model.WindowFor(day)
	key := model.DayKey(day)

	var trades []model.Trade
	cursor := ""
	pages := 0
	for {
		if c.opts.MaxPages > 0 && pages >= c.opts.MaxPages {
			return nil, errs.Newf(errs.CodePageLimit, "%s: more than %d pages, cursor %q", key, c.opts.MaxPages, cursor)
		}
		if pages > 0 && c.opts.PageDelay > 0 {
			if err := sleepCtx(ctx, c.opts.PageDelay); err != nil {
				return nil, err
			}
		}

		page, err := c.FetchPage(ctx, w, cursor)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", key, pages+1, err)
		}
		pages++
		trades = append(trades, page.Trades...)
		c.log().Debug("page fetched", "date", key, "page", pages, "trades", len(page.Trades), "total", len(trades))

		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	return &model.DayTrades{Trades: trades, Pages: pages}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
