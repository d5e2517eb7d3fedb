package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kalshi-trades/internal/errs"
	"kalshi-trades/internal/model"
	"kalshi-trades/internal/notify"
	"kalshi-trades/internal/saver"
)

type stubProvider struct {
	fail map[string]bool
}

func (stubProvider) GetName() string { return "stub" }
func (stubProvider) Close() error    { return nil }

func (p stubProvider) FetchDay(_ context.Context, day time.Time) (*model.DayTrades, error) {
	if p.fail[model.DayKey(day)] {
		return nil, errs.New(errs.CodeRetriesExhausted, "gave up")
	}
	raw := model.Trade(fmt.Sprintf(`{"trade_id":"%s"}`, model.DayKey(day)))
	return &model.DayTrades{Trades: []model.Trade{raw}, Pages: 1}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.RunSummary
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, s notify.RunSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, s)
	return n.err
}

type PhaseTestSuite struct {
	suite.Suite
	cfg      *Config
	notifier *recordingNotifier
}

func TestPhaseSuite(t *testing.T) {
	suite.Run(t, new(PhaseTestSuite))
}

func (suite *PhaseTestSuite) SetupTest() {
	suite.cfg = DefaultConfig()
	suite.cfg.OutputDir = suite.T().TempDir()
	suite.cfg.StartDate = "2025-01-01"
	suite.cfg.EndDate = "2025-01-03"
	suite.cfg.Heartbeat = 0
	suite.notifier = &recordingNotifier{}
}

func (suite *PhaseTestSuite) runner(fail ...string) *Runner {
	dp := stubProvider{fail: map[string]bool{}}
	for _, d := range fail {
		dp.fail[d] = true
	}
	return &Runner{
		Config:   suite.cfg,
		DP:       dp,
		Store:    saver.NewDayStore(suite.cfg.OutputDir, saver.JSONSaver{}),
		Notifier: suite.notifier,
		Now:      func() time.Time { return time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC) },
	}
}

func (suite *PhaseTestSuite) TestSuccessfulRun() {
	sum, err := suite.runner().RunOnce(context.Background())
	suite.Require().NoError(err)

	suite.Equal(3, sum.Success)
	suite.Require().Len(suite.notifier.sent, 1)
	sent := suite.notifier.sent[0]
	suite.True(sent.OK())
	suite.Equal("2025-01-01", sent.Start)
	suite.Equal("2025-01-03", sent.End)
	suite.Equal(3, sent.Trades)
}

func (suite *PhaseTestSuite) TestDayFailureExitsOne() {
	sum, err := suite.runner("2025-01-02").RunOnce(context.Background())
	suite.Require().Error(err)

	suite.Equal(ExitDayFailures, ExitCode(err))
	suite.Equal(2, sum.Success)
	suite.Require().Len(suite.notifier.sent, 1)
	suite.Equal([]notify.Failure{{Date: "2025-01-02", Reason: "[retries_exhausted] gave up"}}, suite.notifier.sent[0].Failures)
}

func (suite *PhaseTestSuite) TestNothingToDoExitsZeroQuietly() {
	r := suite.runner()
	_, err := r.RunOnce(context.Background())
	suite.Require().NoError(err)
	suite.notifier.sent = nil

	sum, err := r.RunOnce(context.Background())
	suite.Require().NoError(err)
	suite.Equal(0, sum.Success)
	suite.Empty(suite.notifier.sent)
}

func (suite *PhaseTestSuite) TestNotificationFailureKeepsStatus() {
	suite.notifier.err = errs.New(errs.CodeNetwork, "webhook down")

	_, err := suite.runner().RunOnce(context.Background())
	suite.NoError(err)
}

func (suite *PhaseTestSuite) TestBadTimeZoneExitsTwo() {
	suite.cfg.Timezone = "Mars/Olympus"

	_, err := suite.runner().RunOnce(context.Background())
	suite.Require().Error(err)
	suite.Equal(ExitSetup, ExitCode(err))
}

func (suite *PhaseTestSuite) TestRunFlowWithoutScheduleRunsOnce() {
	err := suite.runner("2025-01-01").RunFlow(context.Background())
	suite.Equal(ExitDayFailures, ExitCode(err))
}

func (suite *PhaseTestSuite) TestRunFlowRejectsBadSchedule() {
	suite.cfg.Schedule = "every day please"

	err := suite.runner().RunFlow(context.Background())
	suite.Equal(ExitSetup, ExitCode(err))
}

func (suite *PhaseTestSuite) TestRunFlowStopsOnCancel() {
	suite.cfg.Schedule = "30 0 * * *"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- suite.runner().RunFlow(ctx) }()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("daemon did not stop")
	}
}

func (suite *PhaseTestSuite) TestRunAggregate() {
	_, err := suite.runner().RunOnce(context.Background())
	suite.Require().NoError(err)
	suite.cfg.AggregateDir = suite.T().TempDir()

	suite.Require().NoError(RunAggregate(suite.cfg))
	suite.FileExists(suite.cfg.AggregateDir + "/aggregated_daily.csv")
	suite.FileExists(suite.cfg.AggregateDir + "/aggregated_category.csv")
}
