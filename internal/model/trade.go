package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TradeView is the subset of trade fields the analysis side reads. Field
// shapes vary between API versions, so numbers are decoded leniently.
type TradeView struct {
	TradeID         string        `json:"trade_id"`
	Ticker          string        `json:"ticker"`
	TickerName      string        `json:"ticker_name"`
	ReportTicker    string        `json:"report_ticker"`
	Count           FlexibleInt64 `json:"count"`
	ContractsTraded FlexibleInt64 `json:"contracts_traded"`
	YesPrice        FlexibleInt64 `json:"yes_price"`
	NoPrice         FlexibleInt64 `json:"no_price"`
	TakerSide       string        `json:"taker_side"`
	CreatedTime     string        `json:"created_time"`
}

// ParseTradeView decodes the known fields of a raw trade.
func ParseTradeView(raw Trade) (TradeView, error) {
	var v TradeView
	if err := json.Unmarshal(raw, &v); err != nil {
		return TradeView{}, fmt.Errorf("decode trade: %w", err)
	}
	return v, nil
}

// Volume is count, falling back to contracts_traded.
func (v TradeView) Volume() int64 {
	if n := v.Count.Int64(); n != 0 {
		return n
	}
	return v.ContractsTraded.Int64()
}

// Symbol is the first non-empty of ticker, ticker_name and report_ticker.
func (v TradeView) Symbol() string {
	switch {
	case v.Ticker != "":
		return v.Ticker
	case v.TickerName != "":
		return v.TickerName
	default:
		return v.ReportTicker
	}
}

// FlexibleInt64 parses int, float (including scientific notation), numeric
// strings and null into an int64.
type FlexibleInt64 int64

func (f *FlexibleInt64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str == "" {
			*f = 0
			return nil
		}
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexibleInt64(int64(val))
		return nil
	}

	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*f = FlexibleInt64(int64(floatVal))
		return nil
	}

	return fmt.Errorf("cannot parse as int64: %s", string(data))
}

func (f FlexibleInt64) Int64() int64 {
	return int64(f)
}
