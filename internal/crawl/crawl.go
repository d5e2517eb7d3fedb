package crawl

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kalshi-trades/internal/model"
	"kalshi-trades/internal/provider"
	"kalshi-trades/internal/saver"
	"kalshi-trades/internal/slogx"
)

// DefaultWorkers is the number of days fetched concurrently.
const DefaultWorkers = 2

// DefaultStaleTempAge is how old a leftover temp file must be before a run
// deletes it. Younger ones may belong to another process still saving.
const DefaultStaleTempAge = time.Minute

// Job is one pending day.
type Job struct {
	Day time.Time
}

// JobResult is sent by workers for fan-in
type JobResult struct {
	Ok      bool
	Date    string
	Path    string
	Trades  int
	Pages   int
	Reason  string
	Elapsed time.Duration
}

// Options configures one run.
type Options struct {
	Plan      PlanOptions
	Workers   int
	Heartbeat time.Duration
	Progress  bool
	// StaleTempAge is the minimum age of temp files removed at start;
	// zero means DefaultStaleTempAge.
	StaleTempAge time.Duration
	// LogOutput receives the workers' fan-in log lines; nil means stderr.
	LogOutput io.Writer
}

// Summary is the outcome of one run.
type Summary struct {
	RunID          string
	Plan           *Plan
	RemovedPartial bool
	Success        int
	Failed         int
	NotStarted     int
	Trades         int
	Saved          []savedEntry
	Failures       []failedEntry
	Started        time.Time
	Finished       time.Time
}

// OK reports whether every planned day was saved.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.NotStarted == 0
}

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// RunOneCrawl plans the run against the days already in store, removes a
// partial record for today unless today is included, fetches the pending
// days in parallel and writes the run report. Errors are returned only for
// problems before any day is fetched (output dir, planning); day failures
// are reported in the Summary.
func RunOneCrawl(ctx context.Context, dp provider.DataProvider, store *saver.DayStore, opts Options, now time.Time) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), Started: time.Now()}

	if err := store.Init(); err != nil {
		return nil, err
	}
	staleAge := opts.StaleTempAge
	if staleAge <= 0 {
		staleAge = DefaultStaleTempAge
	}
	if removed, err := store.CleanTemp(staleAge); err != nil {
		slog.Warn("could not clean stale temp files", "error", err)
	} else if len(removed) > 0 {
		slog.Info("removed stale temp files", "count", len(removed))
	}

	existing, err := store.ExistingDays()
	if err != nil {
		return nil, err
	}
	if opts.Plan.Location != nil && !opts.Plan.IncludeToday {
		today := model.LocalDay(now, opts.Plan.Location)
		if store.Exists(today) {
			removed, err := store.Remove(today)
			if err != nil {
				slog.Warn("could not remove partial file for today", "path", store.Path(today), "error", err)
			} else if removed {
				slog.Info("removed partial file for today", "date", model.DayKey(today))
				sum.RemovedPartial = true
				existing = withoutDay(existing, today)
			}
		}
	}

	plan, err := BuildPlan(opts.Plan, existing, now)
	if err != nil {
		return nil, err
	}
	sum.Plan = plan

	switch plan.Status {
	case PlanNoRange:
		slog.Info("no new dates to download", "start", model.DayKey(plan.Start), "end", model.DayKey(plan.End))
		sum.Finished = time.Now()
		return sum, nil
	case PlanSatisfied:
		slog.Info("all requested dates are already downloaded",
			"start", model.DayKey(plan.Start), "end", model.DayKey(plan.End), "present", len(plan.Skip))
		sum.Finished = time.Now()
		return sum, nil
	}

	for _, d := range plan.Skip {
		slog.Debug("skip, already exists", "path", store.Path(d))
	}
	slog.Info("days to download",
		"run_id", sum.RunID, "days", len(plan.Days), "skipped", len(plan.Skip),
		"start", model.DayKey(plan.Start), "end", model.DayKey(plan.End))

	jobs := make([]Job, len(plan.Days))
	for i, d := range plan.Days {
		jobs[i] = Job{Day: d}
	}

	defer func() {
		if len(sum.Saved) > 0 || len(sum.Failures) > 0 {
			if err := writeRunReport(store.Dir(), sum); err != nil {
				slog.Warn("could not write run report", "error", err)
			} else {
				slog.Info("run report saved", "success", len(sum.Saved), "failed", len(sum.Failures))
			}
		}
	}()

	RunParallel(ctx, dp, store, jobs, opts, sum)
	sum.Finished = time.Now()
	slog.Info("crawl done", "success", sum.Success, "failed", sum.Failed, "trades", sum.Trades,
		"elapsed", sum.Finished.Sub(sum.Started).Round(time.Millisecond))
	if sum.Failed > 0 {
		slog.Error("completed with failures", "count", sum.Failed, "days", joinFailedReasons(sum.Failures))
	}
	return sum, nil
}

// tally is shared between the result collector and the heartbeat.
type tally struct {
	mu      sync.Mutex
	success int
	failed  int
	trades  int
}

func (t *tally) snapshot() (success, failed, trades int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.success, t.failed, t.trades
}

func runJobResultCollector(results <-chan JobResult, t *tally, sum *Summary, bar *dayProgress) {
	for r := range results {
		t.mu.Lock()
		if r.Ok {
			t.success++
			t.trades += r.Trades
			sum.Saved = append(sum.Saved, savedEntry{Date: r.Date, Path: r.Path, Trades: r.Trades})
		} else {
			t.failed++
			sum.Failures = append(sum.Failures, failedEntry{Date: r.Date, Reason: r.Reason})
		}
		t.mu.Unlock()
		bar.Add()
	}
}

// RunParallel fetches and saves every job with opts.Workers workers and fills
// sum. A failed day never stops the other days. Cancelling ctx stops workers
// from taking new days; days not started are counted in sum.NotStarted.
func RunParallel(ctx context.Context, dp provider.DataProvider, store *saver.DayStore, jobs []Job, opts Options, sum *Summary) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	logs := make(chan string, 2048)
	chanLogger := slogx.NewChanLogger(logs)
	logger := chanLogger.Logger
	errs := make(chan errorEntry, 64)
	var logWg sync.WaitGroup
	logWg.Add(1)
	go func() {
		defer logWg.Done()
		runLogWriter(logs, out)
	}()
	var errWg sync.WaitGroup
	errWg.Add(1)
	go func() {
		defer errWg.Done()
		runErrorHandler(errs, logger)
	}()

	hbCtx, stopHeartbeat := context.WithCancel(context.Background())
	defer stopHeartbeat()

	if ls, ok := dp.(loggerSetter); ok {
		ls.SetLogger(logger)
		defer ls.SetLogger(nil)
	}
	defer func() {
		close(errs)
		errWg.Wait()
		close(logs)
		logWg.Wait()
		if n := chanLogger.Dropped(); n > 0 {
			slog.Warn("worker log lines dropped, log channel full", "count", n)
		}
	}()

	pending := make(chan Job, len(jobs))
	for _, j := range jobs {
		pending <- j
	}
	close(pending)

	bar := newDayProgress(len(jobs), opts.Progress)
	defer bar.Finish()

	results := make(chan JobResult, len(jobs))
	t := &tally{}
	var resWg sync.WaitGroup
	resWg.Add(1)
	go func() {
		defer resWg.Done()
		runJobResultCollector(results, t, sum, bar)
	}()

	var hbWg sync.WaitGroup
	if opts.Heartbeat > 0 {
		hbWg.Add(1)
		go func() {
			defer hbWg.Done()
			runHeartbeat(hbCtx, opts.Heartbeat, len(jobs), t, logger)
		}()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case job, ok := <-pending:
					if !ok {
						return
					}
					r := runJob(ctx, dp, store, job, logger)
					if !r.Ok {
						errs <- errorEntry{Date: r.Date, Reason: r.Reason}
					}
					results <- r
				}
			}
		}()
	}
	wg.Wait()
	close(results)
	resWg.Wait()
	stopHeartbeat()
	hbWg.Wait()

	sum.Success, sum.Failed, sum.Trades = t.snapshot()
	sum.NotStarted = len(jobs) - sum.Success - sum.Failed
	sort.Slice(sum.Saved, func(i, j int) bool { return sum.Saved[i].Date < sum.Saved[j].Date })
	sort.Slice(sum.Failures, func(i, j int) bool { return sum.Failures[i].Date < sum.Failures[j].Date })

	logger.Info("summary", "run_id", sum.RunID, "total_trades", sum.Trades,
		"success", sum.Success, "failed", sum.Failed, "not_started", sum.NotStarted)
	for _, f := range sum.Failures {
		logger.Error("summary failed", "date", f.Date, "reason", f.Reason)
	}
}

// runJob fetches one day and persists it. Nothing is written unless the whole
// cursor chain was fetched.
func runJob(ctx context.Context, dp provider.DataProvider, store *saver.DayStore, job Job, logger *slog.Logger) JobResult {
	start := time.Now()
	key := model.DayKey(job.Day)
	logger.Info("fetch", "date", key)

	dt, err := dp.FetchDay(ctx, job.Day)
	if err != nil {
		return JobResult{Ok: false, Date: key, Reason: err.Error(), Elapsed: time.Since(start)}
	}

	rec := model.NewDayRecord(job.Day, dt.Trades)
	path, err := store.Save(rec)
	if err != nil {
		return JobResult{Ok: false, Date: key, Reason: err.Error(), Elapsed: time.Since(start)}
	}

	elapsed := time.Since(start)
	logger.Info("day saved", "date", key, "trades", rec.TradeCount, "pages", dt.Pages,
		"path", path, "elapsed", elapsed.Round(time.Millisecond))
	return JobResult{Ok: true, Date: key, Path: path, Trades: rec.TradeCount, Pages: dt.Pages, Elapsed: elapsed}
}
