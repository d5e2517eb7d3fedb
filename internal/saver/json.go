package saver

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"kalshi-trades/internal/model"
)

// JSONSaver writes the Day Record body as indented JSON followed by a newline.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rec *model.DayRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (JSONSaver) Load(path string) (*model.DayRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec model.DayRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if rec.Trades == nil {
		rec.Trades = []model.Trade{}
	}
	return &rec, nil
}
