package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"kalshi-trades/internal/model"
)

// TradeRow is one trade in a parquet Day Record. Raw keeps the untouched
// trade object so nothing is lost to the typed columns.
type TradeRow struct {
	TradeID     string `parquet:"trade_id,optional"`
	Ticker      string `parquet:"ticker"`
	Count       int64  `parquet:"count"`
	YesPrice    int64  `parquet:"yes_price,optional"`
	NoPrice     int64  `parquet:"no_price,optional"`
	TakerSide   string `parquet:"taker_side,optional"`
	CreatedTime string `parquet:"created_time,optional"`
	Raw         string `parquet:"raw"`
}

const (
	metaDate       = "date"
	metaMinTS      = "min_ts"
	metaMaxTS      = "max_ts"
	metaTradeCount = "trade_count"
)

// ParquetSaver writes one row per trade; the Day Record header goes into the
// file's key/value metadata.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rec *model.DayRecord, path string) error {
	rows := make([]TradeRow, 0, len(rec.Trades))
	for _, raw := range rec.Trades {
		row := TradeRow{Raw: string(raw)}
		// Unknown shapes still keep their raw payload.
		if v, err := model.ParseTradeView(raw); err == nil {
			row.TradeID = v.TradeID
			row.Ticker = v.Symbol()
			row.Count = v.Volume()
			row.YesPrice = v.YesPrice.Int64()
			row.NoPrice = v.NoPrice.Int64()
			row.TakerSide = v.TakerSide
			row.CreatedTime = v.CreatedTime
		}
		rows = append(rows, row)
	}
	err := parquet.WriteFile(path, rows,
		parquet.KeyValueMetadata(metaDate, rec.Date),
		parquet.KeyValueMetadata(metaMinTS, strconv.FormatInt(rec.MinTS, 10)),
		parquet.KeyValueMetadata(metaMaxTS, strconv.FormatInt(rec.MaxTS, 10)),
		parquet.KeyValueMetadata(metaTradeCount, strconv.Itoa(rec.TradeCount)),
	)
	if err != nil {
		return err
	}
	return syncFile(path)
}

func (ParquetSaver) Load(path string) (*model.DayRecord, error) {
	date, err := parquetDate(path)
	if err != nil {
		return nil, err
	}
	day, err := model.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rows, err := parquet.ReadFile[TradeRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	trades := make([]model.Trade, len(rows))
	for i, r := range rows {
		trades[i] = model.Trade(r.Raw)
	}
	return model.NewDayRecord(day, trades), nil
}

// parquetDate reads the date metadata, falling back to the file name.
func parquetDate(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return "", fmt.Errorf("open parquet %s: %w", path, err)
	}
	if v, ok := pf.Lookup(metaDate); ok && v != "" {
		return v, nil
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
}
