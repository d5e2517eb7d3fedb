package crawl

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"kalshi-trades/internal/errs"
	"kalshi-trades/internal/model"
)

type PlanTestSuite struct {
	suite.Suite
	ny  *time.Location
	now time.Time
}

func TestPlanSuite(t *testing.T) {
	suite.Run(t, new(PlanTestSuite))
}

func (suite *PlanTestSuite) SetupTest() {
	loc, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)
	suite.ny = loc
	// 10:00 in New York on 2025-01-10
	suite.now = time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
}

func day(s string) time.Time {
	d, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func days(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = day(s)
	}
	return out
}

func keys(ds []time.Time) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = model.DayKey(d)
	}
	return out
}

func (suite *PlanTestSuite) opts() PlanOptions {
	return PlanOptions{
		Start:        optional.None[time.Time](),
		End:          optional.None[time.Time](),
		Location:     suite.ny,
		DefaultStart: day(DefaultStartDate),
	}
}

func (suite *PlanTestSuite) TestResumesAfterLatestExisting() {
	existing := days("2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05")

	plan, err := BuildPlan(suite.opts(), existing, suite.now)
	suite.Require().NoError(err)

	suite.Equal(PlanPending, plan.Status)
	suite.Equal([]string{"2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09"}, keys(plan.Days))
	suite.Empty(plan.Skip)
	suite.Equal("2025-01-10", model.DayKey(plan.Today))
}

func (suite *PlanTestSuite) TestExplicitRangeSkipsPresentDays() {
	opts := suite.opts()
	opts.Start = optional.Some(day("2025-01-03"))
	opts.End = optional.Some(day("2025-01-07"))
	existing := days("2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05")

	plan, err := BuildPlan(opts, existing, suite.now)
	suite.Require().NoError(err)

	suite.Equal([]string{"2025-01-06", "2025-01-07"}, keys(plan.Days))
	suite.Equal([]string{"2025-01-03", "2025-01-04", "2025-01-05"}, keys(plan.Skip))
}

func (suite *PlanTestSuite) TestOverwriteRefetchesPresentDays() {
	opts := suite.opts()
	opts.Start = optional.Some(day("2025-01-03"))
	opts.End = optional.Some(day("2025-01-05"))
	opts.Overwrite = true

	plan, err := BuildPlan(opts, days("2025-01-03", "2025-01-04"), suite.now)
	suite.Require().NoError(err)

	suite.Equal([]string{"2025-01-03", "2025-01-04", "2025-01-05"}, keys(plan.Days))
	suite.Empty(plan.Skip)
}

func (suite *PlanTestSuite) TestEndClampedToYesterday() {
	opts := suite.opts()
	opts.Start = optional.Some(day("2025-01-08"))
	opts.End = optional.Some(day("2025-01-20"))

	plan, err := BuildPlan(opts, nil, suite.now)
	suite.Require().NoError(err)

	suite.Equal("2025-01-09", model.DayKey(plan.End))
	suite.Equal([]string{"2025-01-08", "2025-01-09"}, keys(plan.Days))
}

func (suite *PlanTestSuite) TestIncludeTodayExtendsEnd() {
	opts := suite.opts()
	opts.IncludeToday = true

	plan, err := BuildPlan(opts, days("2025-01-08"), suite.now)
	suite.Require().NoError(err)

	suite.Equal([]string{"2025-01-09", "2025-01-10"}, keys(plan.Days))
}

func (suite *PlanTestSuite) TestUpToDateIsNoRange() {
	plan, err := BuildPlan(suite.opts(), days("2025-01-08", "2025-01-09"), suite.now)
	suite.Require().NoError(err)

	suite.Equal(PlanNoRange, plan.Status)
	suite.Empty(plan.Days)
	suite.Equal("no_range", plan.Status.String())
}

func (suite *PlanTestSuite) TestAllPresentIsSatisfied() {
	opts := suite.opts()
	opts.Start = optional.Some(day("2025-01-02"))
	opts.End = optional.Some(day("2025-01-04"))

	plan, err := BuildPlan(opts, days("2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05"), suite.now)
	suite.Require().NoError(err)

	suite.Equal(PlanSatisfied, plan.Status)
	suite.Empty(plan.Days)
	suite.Len(plan.Skip, 3)
}

func (suite *PlanTestSuite) TestEmptyDirectoryStartsAtDefault() {
	opts := suite.opts()
	opts.DefaultStart = day("2025-01-07")

	plan, err := BuildPlan(opts, nil, suite.now)
	suite.Require().NoError(err)

	suite.Equal([]string{"2025-01-07", "2025-01-08", "2025-01-09"}, keys(plan.Days))
}

func (suite *PlanTestSuite) TestNoStartIsPlanningError() {
	opts := suite.opts()
	opts.DefaultStart = time.Time{}

	_, err := BuildPlan(opts, nil, suite.now)
	suite.Require().Error(err)
	suite.True(errs.HasCode(err, errs.CodePlanning))
}

func (suite *PlanTestSuite) TestMissingLocationIsPlanningError() {
	opts := suite.opts()
	opts.Location = nil

	_, err := BuildPlan(opts, nil, suite.now)
	suite.Require().Error(err)
	suite.True(errs.HasCode(err, errs.CodePlanning))
}

func (suite *PlanTestSuite) TestTodayFollowsConfiguredZone() {
	// 22:00 on 2025-01-09 in New York, already 2025-01-10 in UTC
	now := time.Date(2025, 1, 10, 3, 0, 0, 0, time.UTC)

	plan, err := BuildPlan(suite.opts(), days("2025-01-06"), now)
	suite.Require().NoError(err)

	suite.Equal("2025-01-09", model.DayKey(plan.Today))
	suite.Equal([]string{"2025-01-07", "2025-01-08"}, keys(plan.Days))
}

func (suite *PlanTestSuite) TestWithoutDay() {
	in := days("2025-01-01", "2025-01-02", "2025-01-03")

	out := withoutDay(in, day("2025-01-02"))

	suite.Equal([]string{"2025-01-01", "2025-01-03"}, keys(out))
	suite.Len(in, 3)
}
