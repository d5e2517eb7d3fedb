package kalshi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kalshi-trades/internal/errs"
	"kalshi-trades/internal/model"
	"kalshi-trades/internal/slogx"
)

// scriptedServer answers the n-th request with steps[n]; requests past the
// end of the script reuse the last step.
type scriptedServer struct {
	mu      sync.Mutex
	steps   []http.HandlerFunc
	queries []url.Values
	*httptest.Server
}

func newScriptedServer(steps ...http.HandlerFunc) *scriptedServer {
	s := &scriptedServer{steps: steps}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		n := len(s.queries)
		s.queries = append(s.queries, r.URL.Query())
		step := s.steps[min(n, len(s.steps)-1)]
		s.mu.Unlock()
		step(w, r)
	}))
	return s
}

func (s *scriptedServer) requests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		fmt.Fprint(w, `{"error":"try later"}`)
	}
}

func body(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, s)
	}
}

func page(cursor string, ids ...string) http.HandlerFunc {
	trades := ""
	for i, id := range ids {
		if i > 0 {
			trades += ","
		}
		trades += fmt.Sprintf(`{"trade_id":%q,"ticker":"KXBTC-25","count":1}`, id)
	}
	if cursor == "" {
		return body(fmt.Sprintf(`{"trades":[%s]}`, trades))
	}
	return body(fmt.Sprintf(`{"trades":[%s],"cursor":%q}`, trades, cursor))
}

func hangUp(w http.ResponseWriter, r *http.Request) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err == nil {
		conn.Close()
	}
}

type CrawlerTestSuite struct {
	suite.Suite
	day time.Time
}

func TestCrawlerSuite(t *testing.T) {
	suite.Run(t, new(CrawlerTestSuite))
}

func (suite *CrawlerTestSuite) SetupTest() {
	suite.day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
}

func (suite *CrawlerTestSuite) newCrawler(srv *scriptedServer, mutate ...func(*Options)) *Crawler {
	opts := Options{
		BaseURL:        srv.URL,
		Limit:          100,
		RequestTimeout: 5 * time.Second,
		RetryDelay:     time.Millisecond,
		PageDelay:      time.Millisecond,
		BypassProxy:    true,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := NewCrawler(opts)
	suite.Require().NoError(err)
	c.SetLogger(slogx.Discard())
	return c
}

func (suite *CrawlerTestSuite) TestFetchPageSendsWindowLimitAndCursor() {
	srv := newScriptedServer(page(""))
	defer srv.Close()
	c := suite.newCrawler(srv)

	w := model.WindowFor(suite.day)
	_, err := c.FetchPage(context.Background(), w, "")
	suite.Require().NoError(err)
	_, err = c.FetchPage(context.Background(), w, "abc")
	suite.Require().NoError(err)

	reqs := srv.requests()
	suite.Require().Len(reqs, 2)
	suite.Equal("1741564800", reqs[0].Get("min_ts"))
	suite.Equal("1741651199", reqs[0].Get("max_ts"))
	suite.Equal("100", reqs[0].Get("limit"))
	suite.False(reqs[0].Has("cursor"))
	suite.Equal("abc", reqs[1].Get("cursor"))
}

func (suite *CrawlerTestSuite) TestFetchPageSucceedsAfterSevenRetryableFailures() {
	steps := []http.HandlerFunc{
		status(500), status(502), status(503), status(504),
		status(429), hangUp, status(500),
		page("", "t1", "t2"),
	}
	srv := newScriptedServer(steps...)
	defer srv.Close()
	c := suite.newCrawler(srv)

	p, err := c.FetchPage(context.Background(), model.WindowFor(suite.day), "")
	suite.Require().NoError(err)
	suite.Len(p.Trades, 2)
	suite.Empty(p.Cursor)
	suite.Len(srv.requests(), 8)
}

func (suite *CrawlerTestSuite) TestFetchPageFailsAfterEightRetryableFailures() {
	srv := newScriptedServer(status(503), status(503), status(503), status(503),
		status(503), status(503), status(503), status(503), page("", "never"))
	defer srv.Close()
	c := suite.newCrawler(srv)

	p, err := c.FetchPage(context.Background(), model.WindowFor(suite.day), "")
	suite.Nil(p)
	suite.Require().Error(err)
	suite.True(errs.HasCode(err, errs.CodeRetriesExhausted))
	suite.False(errs.Retryable(err))
	suite.Len(srv.requests(), 8)
}

func (suite *CrawlerTestSuite) TestFetchPageHonoursMaxAttempts() {
	srv := newScriptedServer(status(500))
	defer srv.Close()
	c := suite.newCrawler(srv, func(o *Options) { o.MaxAttempts = 3 })

	_, err := c.FetchPage(context.Background(), model.WindowFor(suite.day), "")
	suite.True(errs.HasCode(err, errs.CodeRetriesExhausted))
	suite.Len(srv.requests(), 3)
}

func (suite *CrawlerTestSuite) TestFetchPageFatalErrorsAreNotRetried() {
	tests := []struct {
		name string
		step http.HandlerFunc
		code errs.Code
	}{
		{"malformed json", body(`{"trades":[`), errs.CodeMalformedResponse},
		{"array body", body(`[{"trade_id":"x"}]`), errs.CodeMalformedResponse},
		{"wrong trades type", body(`{"trades":"none"}`), errs.CodeMalformedResponse},
		{"null body", body(`null`), errs.CodeMalformedResponse},
		{"not found", status(404), errs.CodeClientStatus},
		{"bad request", status(400), errs.CodeClientStatus},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			srv := newScriptedServer(tt.step, page("", "unreachable"))
			defer srv.Close()
			c := suite.newCrawler(srv)

			_, err := c.FetchPage(context.Background(), model.WindowFor(suite.day), "")
			suite.Require().Error(err)
			suite.Equal(tt.code, errs.GetCode(err))
			suite.Len(srv.requests(), 1)
		})
	}
}

func (suite *CrawlerTestSuite) TestFetchPageMissingTradesIsEmptyPage() {
	srv := newScriptedServer(body(`{"cursor":""}`))
	defer srv.Close()
	c := suite.newCrawler(srv)

	p, err := c.FetchPage(context.Background(), model.WindowFor(suite.day), "")
	suite.Require().NoError(err)
	suite.Empty(p.Trades)
	suite.Empty(p.Cursor)
}

func (suite *CrawlerTestSuite) TestFetchPageRejectsInvalidWindow() {
	srv := newScriptedServer(page(""))
	defer srv.Close()
	c := suite.newCrawler(srv)

	_, err := c.FetchPage(context.Background(), model.Window{MinTS: 10, MaxTS: 5}, "")
	suite.True(errs.HasCode(err, errs.CodeInvalidParameter))
	suite.Empty(srv.requests())
}

func (suite *CrawlerTestSuite) TestFetchDayCollectsWholeCursorChain() {
	srv := newScriptedServer(
		page("c1", "a", "b"),
		status(500),
		hangUp,
		page("c2", "c", "d", "e"),
		page("", "f"),
	)
	defer srv.Close()
	c := suite.newCrawler(srv)

	res, err := c.FetchDay(context.Background(), suite.day)
	suite.Require().NoError(err)
	suite.Equal(3, res.Pages)
	suite.Len(res.Trades, 6)
	suite.JSONEq(`{"trade_id":"a","ticker":"KXBTC-25","count":1}`, string(res.Trades[0]))
	suite.JSONEq(`{"trade_id":"f","ticker":"KXBTC-25","count":1}`, string(res.Trades[5]))

	reqs := srv.requests()
	suite.Require().Len(reqs, 5)
	suite.Equal("", reqs[0].Get("cursor"))
	suite.Equal("c1", reqs[1].Get("cursor"))
	suite.Equal("c1", reqs[3].Get("cursor"))
	suite.Equal("c2", reqs[4].Get("cursor"))
}

func (suite *CrawlerTestSuite) TestFetchDayAbortsOnFatalPage() {
	srv := newScriptedServer(page("c1", "a"), body(`oops`))
	defer srv.Close()
	c := suite.newCrawler(srv)

	res, err := c.FetchDay(context.Background(), suite.day)
	suite.Nil(res)
	suite.True(errs.HasCode(err, errs.CodeMalformedResponse))
	suite.Contains(err.Error(), "2025-03-10 page 2")
}

func (suite *CrawlerTestSuite) TestFetchDayStopsAtPageCeiling() {
	srv := newScriptedServer(page("again", "x"))
	defer srv.Close()
	c := suite.newCrawler(srv, func(o *Options) { o.MaxPages = 3 })

	res, err := c.FetchDay(context.Background(), suite.day)
	suite.Nil(res)
	suite.True(errs.HasCode(err, errs.CodePageLimit))
	suite.Len(srv.requests(), 3)
}

func (suite *CrawlerTestSuite) TestFetchDayCancelled() {
	srv := newScriptedServer(page("again", "x"))
	defer srv.Close()
	c := suite.newCrawler(srv, func(o *Options) { o.PageDelay = time.Hour })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.FetchDay(ctx, suite.day)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *CrawlerTestSuite) TestNewCrawlerRejectsOversizedLimit() {
	_, err := NewCrawler(Options{Limit: MaxLimit + 1})
	suite.True(errs.HasCode(err, errs.CodeInvalidParameter))
}

func (suite *CrawlerTestSuite) TestLinearBackOff() {
	b := newLinearBackOff(10 * time.Second)
	suite.Equal(10*time.Second, b.NextBackOff())
	suite.Equal(20*time.Second, b.NextBackOff())
	suite.Equal(30*time.Second, b.NextBackOff())
	b.Reset()
	suite.Equal(10*time.Second, b.NextBackOff())
}
