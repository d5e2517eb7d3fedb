package notify

import (
	"context"
	"time"
)

// Failure is one day that could not be downloaded.
type Failure struct {
	Date   string
	Reason string
}

// RunSummary is what a notifier reports about a finished run.
type RunSummary struct {
	RunID      string
	Start      string
	End        string
	Success    int
	Failed     int
	NotStarted int
	Trades     int
	// Message is set when the run stopped before fetching, e.g. nothing to do.
	Message  string
	Failures []Failure
	Elapsed  time.Duration
}

// OK reports whether every planned day was saved.
func (s RunSummary) OK() bool {
	return s.Failed == 0 && s.NotStarted == 0
}

// Notifier delivers a run summary somewhere a human will read it.
type Notifier interface {
	Notify(ctx context.Context, s RunSummary) error
}

// NoopNotifier is used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, RunSummary) error { return nil }

// New returns a LarkNotifier for webhook, or a NoopNotifier when webhook is empty.
func New(webhook string, timeout time.Duration) Notifier {
	if webhook == "" {
		return NoopNotifier{}
	}
	return NewLarkNotifier(webhook, timeout)
}
