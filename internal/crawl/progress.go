package crawl

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// dayProgress counts finished days on stderr. A disabled progress is a no-op.
type dayProgress struct {
	bar *progressbar.ProgressBar
}

func newDayProgress(total int, enabled bool) *dayProgress {
	if !enabled || total <= 0 {
		return &dayProgress{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("days"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	return &dayProgress{bar: bar}
}

func (p *dayProgress) Add() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *dayProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
