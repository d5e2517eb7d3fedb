package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

func runLogWriter(lines <-chan string, w io.Writer) {
	for s := range lines {
		fmt.Fprintln(w, s)
	}
}

type errorEntry struct {
	Date   string
	Reason string
}

func runErrorHandler(errors <-chan errorEntry, logger *slog.Logger) {
	for e := range errors {
		logger.Error("day failed", "date", e.Date, "reason", e.Reason)
	}
}

func runHeartbeat(ctx context.Context, interval time.Duration, totalJobs int, t *tally, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s, f, trades := t.snapshot()
			logger.Info("heartbeat", "done", s+f, "total", totalJobs, "success", s, "failed", f, "trades", trades)
		}
	}
}
