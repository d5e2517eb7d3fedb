package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayLayout is the date form used in Day Record file names and bodies.
const DayLayout = "2006-01-02"

// Trade is one raw trade object as returned by the trades API. It is passed
// through untouched.
type Trade = json.RawMessage

// DayRecord is the persisted result of fetching one UTC calendar day.
type DayRecord struct {
	Date       string  `json:"date"`
	MinTS      int64   `json:"min_ts"`
	MaxTS      int64   `json:"max_ts"`
	TradeCount int     `json:"trade_count"`
	Trades     []Trade `json:"trades"`
}

// NewDayRecord builds the record for day. Trades is never nil so the body
// always carries "trades": [].
func NewDayRecord(day time.Time, trades []Trade) *DayRecord {
	if trades == nil {
		trades = []Trade{}
	}
	w := WindowFor(day)
	return &DayRecord{
		Date:       DayKey(day),
		MinTS:      w.MinTS,
		MaxTS:      w.MaxTS,
		TradeCount: len(trades),
		Trades:     trades,
	}
}

// Window is an inclusive [MinTS, MaxTS] range of Unix seconds.
type Window struct {
	MinTS int64
	MaxTS int64
}

// WindowFor returns [00:00:00, 23:59:59] UTC of day's calendar date.
func WindowFor(day time.Time) Window {
	start := Midnight(day)
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	return Window{MinTS: start.Unix(), MaxTS: end.Unix()}
}

// Validate checks the bounds a page request needs.
func (w Window) Validate() error {
	if w.MinTS < 0 || w.MaxTS < 0 {
		return fmt.Errorf("window bounds must be non-negative: [%d, %d]", w.MinTS, w.MaxTS)
	}
	if w.MinTS > w.MaxTS {
		return fmt.Errorf("window start %d after end %d", w.MinTS, w.MaxTS)
	}
	return nil
}

// Midnight drops the clock part of t, keeping its calendar date, in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDay returns the calendar date of now as seen in loc.
func LocalDay(now time.Time, loc *time.Location) time.Time {
	return Midnight(now.In(loc))
}

// DayKey formats day as YYYY-MM-DD.
func DayKey(day time.Time) string {
	return day.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// DaysBetween lists every calendar day from start to end inclusive.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = Midnight(start), Midnight(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayTrades is everything fetched for one day: the trades of the full
// cursor chain, in page order, and the number of pages it took.
type DayTrades struct {
	Trades []Trade
	Pages  int
}
