package aggregate

import (
	"log/slog"
	"sort"
	"time"

	"kalshi-trades/internal/model"
	"kalshi-trades/internal/saver"
)

// DayVolume is the traded volume of one day, in total and per category.
type DayVolume struct {
	Date       string
	Total      int64
	Categories map[string]int64
}

// Summarize sums the volume of rec's trades. Trades that cannot be decoded or
// have no positive volume are ignored.
func Summarize(rec *model.DayRecord) DayVolume {
	dv := DayVolume{Date: rec.Date, Categories: map[string]int64{}}
	for _, raw := range rec.Trades {
		v, err := model.ParseTradeView(raw)
		if err != nil {
			continue
		}
		vol := v.Volume()
		if vol <= 0 {
			continue
		}
		dv.Total += vol
		dv.Categories[ClassifyTicker(v.Symbol())] += vol
	}
	return dv
}

// Result holds one DayVolume per date, ascending.
type Result struct {
	Days    []DayVolume
	Skipped []string
}

// Aggregate reads every Day Record in dir, in every save format. When a date
// exists in more than one format, the first format in saver.Formats wins.
// Unreadable files are skipped with a warning and listed in Result.Skipped.
func Aggregate(dir string) (*Result, error) {
	res := &Result{}
	seen := map[string]bool{}
	for _, format := range saver.Formats() {
		store := saver.NewDayStore(dir, saver.NewDaySaver(format))
		days, err := store.ExistingDays()
		if err != nil {
			return nil, err
		}
		for _, d := range days {
			key := model.DayKey(d)
			if seen[key] {
				continue
			}
			path := store.Path(d)
			rec, err := store.Load(path)
			if err != nil {
				slog.Warn("skipping corrupted file", "path", path, "error", err)
				res.Skipped = append(res.Skipped, path)
				continue
			}
			seen[key] = true
			dv := Summarize(rec)
			if _, err := time.Parse(model.DayLayout, dv.Date); err != nil {
				dv.Date = key
			}
			res.Days = append(res.Days, dv)
		}
	}
	sort.Slice(res.Days, func(i, j int) bool { return res.Days[i].Date < res.Days[j].Date })
	return res, nil
}
