package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"kalshi-trades/internal/aggregate"
	"kalshi-trades/internal/crawl"
	"kalshi-trades/internal/model"
	"kalshi-trades/internal/notify"
	"kalshi-trades/internal/provider"
	"kalshi-trades/internal/saver"
)

const notifyTimeout = 30 * time.Second

// Runner performs download runs with its dependencies.
type Runner struct {
	Config   *Config
	DP       provider.DataProvider
	Store    *saver.DayStore
	Notifier notify.Notifier
	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunOnce performs one download run and sends its notification. The error
// is an *ExitError: ExitSetup before any day is fetched, ExitDayFailures when
// a planned day was not saved.
func (r *Runner) RunOnce(ctx context.Context) (*crawl.Summary, error) {
	opts, err := r.Config.CrawlOptions()
	if err != nil {
		return nil, setupError(err)
	}
	slog.Info("run", "provider", r.DP.GetName(), "dir", r.Store.Dir(), "format", r.Store.Extension(),
		"workers", opts.Workers, "include_today", opts.Plan.IncludeToday, "overwrite", opts.Plan.Overwrite)

	sum, err := crawl.RunOneCrawl(ctx, r.DP, r.Store, opts, r.now())
	if err != nil {
		r.notify(ctx, notify.RunSummary{Failed: 1, Message: "**Error**: " + err.Error()})
		return nil, setupError(err)
	}
	if sum.Plan != nil && sum.Plan.Status == crawl.PlanPending {
		r.notify(ctx, toRunSummary(sum))
	}
	if !sum.OK() {
		return sum, &ExitError{
			Code: ExitDayFailures,
			Err:  fmt.Errorf("%d days failed, %d not started", sum.Failed, sum.NotStarted),
		}
	}
	return sum, nil
}

// notify never fails the run; a shutdown still lets the summary go out.
func (r *Runner) notify(ctx context.Context, s notify.RunSummary) {
	if r.Notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := r.Notifier.Notify(nctx, s); err != nil {
		slog.Warn("notification failed", "error", err)
	}
}

func toRunSummary(sum *crawl.Summary) notify.RunSummary {
	rs := notify.RunSummary{
		RunID:      sum.RunID,
		Success:    sum.Success,
		Failed:     sum.Failed,
		NotStarted: sum.NotStarted,
		Trades:     sum.Trades,
		Elapsed:    sum.Finished.Sub(sum.Started),
	}
	if sum.Plan != nil {
		rs.Start = model.DayKey(sum.Plan.Start)
		rs.End = model.DayKey(sum.Plan.End)
	}
	for _, f := range sum.Failures {
		rs.Failures = append(rs.Failures, notify.Failure{Date: f.Date, Reason: f.Reason})
	}
	return rs
}

// RunFlow runs once, or, with a schedule, runs at start and then on every
// schedule tick until ctx is done. A tick that fires while a run is still in
// flight is skipped. In daemon mode day failures are reported, not returned.
func (r *Runner) RunFlow(ctx context.Context) error {
	if r.Config.Schedule == "" {
		_, err := r.RunOnce(ctx)
		return err
	}

	loc, err := r.Config.Location()
	if err != nil {
		return setupError(err)
	}
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.AddFunc(r.Config.Schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.RunOnce(ctx); err != nil {
			slog.Error("scheduled run finished with errors", "error", err)
		}
	})
	if err != nil {
		return setupError(fmt.Errorf("schedule %q: %w", r.Config.Schedule, err))
	}

	c.Start()
	slog.Info("scheduler started", "schedule", r.Config.Schedule, "timezone", loc.String())
	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		c.Entry(id).WrappedJob.Run()
	}()
	logNext(c, id)

	<-ctx.Done()
	slog.Info("received signal, waiting for in-flight run")
	<-c.Stop().Done()
	first.Wait()
	slog.Info("scheduler stopped")
	return nil
}

func logNext(c *cron.Cron, id cron.EntryID) {
	if e := c.Entry(id); e.Valid() && !e.Next.IsZero() {
		slog.Info("next run", "at", e.Next.Format(time.RFC3339))
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron "+msg, append(keysAndValues, "error", err)...)
}

// RunAggregate sums the Day Records under cfg.OutputDir into the CSV files.
func RunAggregate(cfg *Config) error {
	res, err := aggregate.Aggregate(cfg.OutputDir)
	if err != nil {
		return setupError(err)
	}
	daily, category, err := aggregate.WriteCSV(cfg.AggregateOutputDir(), res)
	if err != nil {
		return setupError(err)
	}
	slog.Info("aggregated", "days", len(res.Days), "skipped", len(res.Skipped), "daily", daily, "category", category)
	return nil
}
