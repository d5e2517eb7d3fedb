package saver

import (
	"strings"

	"kalshi-trades/internal/model"
)

// DaySaver encodes one Day Record to a file and back.
// The store decides where files live and makes writes atomic; a DaySaver
// only writes the bytes to the path it is given.
type DaySaver interface {
	Save(rec *model.DayRecord, path string) error
	Load(path string) (*model.DayRecord, error)
	Extension() string
}

// NewDaySaver creates implementation by format (json, parquet).
// Returns nil if format not supported.
func NewDaySaver(format string) DaySaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// Formats lists the accepted save formats.
func Formats() []string {
	return []string{"json", "parquet"}
}
