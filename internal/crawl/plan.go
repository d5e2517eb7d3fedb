package crawl

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"

	"kalshi-trades/internal/errs"
	"kalshi-trades/internal/model"
)

// DefaultStartDate is where a fresh output directory starts downloading.
const DefaultStartDate = "2025-08-15"

// PlanOptions are the inputs of the range planner.
type PlanOptions struct {
	Start        optional.Option[time.Time]
	End          optional.Option[time.Time]
	Location     *time.Location
	IncludeToday bool
	Overwrite    bool
	// DefaultStart is used when Start is unset and no Day Record exists.
	DefaultStart time.Time
}

// PlanStatus says why a plan has no days, if it has none.
type PlanStatus int

const (
	// PlanPending: at least one day to download.
	PlanPending PlanStatus = iota
	// PlanNoRange: start falls after end once defaults are applied.
	PlanNoRange
	// PlanSatisfied: every day in range already has a Day Record.
	PlanSatisfied
)

func (s PlanStatus) String() string {
	switch s {
	case PlanPending:
		return "pending"
	case PlanNoRange:
		return "no_range"
	case PlanSatisfied:
		return "satisfied"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Plan is the Pending Day Set for one run.
type Plan struct {
	Start  time.Time
	End    time.Time
	Today  time.Time
	Days   []time.Time // to download, ascending, no duplicates
	Skip   []time.Time // in range but already present
	Status PlanStatus
}

// BuildPlan reconciles the days already on disk with the requested window:
//   - end: explicit end, else today with IncludeToday, else yesterday; never
//     today or later without IncludeToday
//   - start: explicit start, else the day after the latest existing day, else
//     DefaultStart
//
// existing must not contain a partial record for today unless IncludeToday
// is set; the caller removes it beforehand.
func BuildPlan(opts PlanOptions, existing []time.Time, now time.Time) (*Plan, error) {
	if opts.Location == nil {
		return nil, errs.New(errs.CodePlanning, "no time zone configured")
	}
	today := model.LocalDay(now, opts.Location)
	yesterday := today.AddDate(0, 0, -1)

	var end time.Time
	switch {
	case opts.End.IsSome():
		end = model.Midnight(opts.End.Unwrap())
	case opts.IncludeToday:
		end = today
	default:
		end = yesterday
	}
	if !opts.IncludeToday && !end.Before(today) {
		end = yesterday
	}

	var start time.Time
	switch {
	case opts.Start.IsSome():
		start = model.Midnight(opts.Start.Unwrap())
	case len(existing) > 0:
		start = model.Midnight(latest(existing)).AddDate(0, 0, 1)
	case !opts.DefaultStart.IsZero():
		start = model.Midnight(opts.DefaultStart)
	default:
		return nil, errs.New(errs.CodePlanning, "no start date: nothing downloaded yet and no default start")
	}

	plan := &Plan{Start: start, End: end, Today: today}
	if start.After(end) {
		plan.Status = PlanNoRange
		return plan, nil
	}

	present := make(map[time.Time]bool, len(existing))
	for _, d := range existing {
		present[model.Midnight(d)] = true
	}
	for _, d := range model.DaysBetween(start, end) {
		if present[d] && !opts.Overwrite {
			plan.Skip = append(plan.Skip, d)
			continue
		}
		plan.Days = append(plan.Days, d)
	}
	if len(plan.Days) == 0 {
		plan.Status = PlanSatisfied
	}
	return plan, nil
}

func latest(days []time.Time) time.Time {
	var max time.Time
	for _, d := range days {
		if d.After(max) {
			max = d
		}
	}
	return max
}

// withoutDay returns days minus day.
func withoutDay(days []time.Time, day time.Time) []time.Time {
	out := days[:0:0]
	for _, d := range days {
		if !d.Equal(day) {
			out = append(out, d)
		}
	}
	return out
}
