package crawl

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	successReportName = ".lastrun.success.json"
	failedReportName  = ".lastrun.failed.json"
)

type savedEntry struct {
	Date   string `json:"date"`
	Path   string `json:"path"`
	Trades int    `json:"trades"`
}

type failedEntry struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type runReport[T any] struct {
	RunID    string    `json:"run_id"`
	Finished time.Time `json:"finished"`
	Days     []T       `json:"days"`
}

// writeRunReport records the saved and failed days of the last run next to
// the day files. A failed report from an earlier run is removed when this run
// has no failures.
func writeRunReport(dir string, sum *Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	finished := sum.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	if len(sum.Saved) > 0 {
		p := filepath.Join(dir, successReportName)
		if err := writeReportFile(p, runReport[savedEntry]{RunID: sum.RunID, Finished: finished, Days: sum.Saved}); err != nil {
			return err
		}
		slog.Debug("report wrote success", "path", p, "days", len(sum.Saved))
	}
	p := filepath.Join(dir, failedReportName)
	if len(sum.Failures) == 0 {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	if err := writeReportFile(p, runReport[failedEntry]{RunID: sum.RunID, Finished: finished, Days: sum.Failures}); err != nil {
		return err
	}
	slog.Debug("report wrote failed", "path", p, "count", len(sum.Failures))
	return nil
}

func writeReportFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func joinFailedReasons(failedList []failedEntry) string {
	if len(failedList) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range failedList {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Date)
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failedList) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failedList)-5))
			break
		}
	}
	return b.String()
}
