package aggregate

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const (
	DailyFileName    = "aggregated_daily.csv"
	CategoryFileName = "aggregated_category.csv"
)

// WriteCSV writes the daily and per-category tables into dir and returns
// their paths.
func WriteCSV(dir string, res *Result) (daily, category string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}
	daily = filepath.Join(dir, DailyFileName)
	if err := writeDaily(daily, res.Days); err != nil {
		return "", "", err
	}
	category = filepath.Join(dir, CategoryFileName)
	if err := writeCategory(category, res.Days); err != nil {
		return "", "", err
	}
	return daily, category, nil
}

func writeDaily(path string, days []DayVolume) error {
	rows := [][]string{{"date", "total_volume"}}
	for _, d := range days {
		rows = append(rows, []string{d.Date, strconv.FormatInt(d.Total, 10)})
	}
	return writeRows(path, rows)
}

// Categories within a date are ordered by name.
func writeCategory(path string, days []DayVolume) error {
	rows := [][]string{{"date", "category", "volume"}}
	for _, d := range days {
		names := make([]string, 0, len(d.Categories))
		for c := range d.Categories {
			names = append(names, c)
		}
		sort.Strings(names)
		for _, c := range names {
			rows = append(rows, []string{d.Date, c, strconv.FormatInt(d.Categories[c], 10)})
		}
	}
	return writeRows(path, rows)
}

func writeRows(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
