package kalshi

import (
	"kalshi-trades/internal/model"
)

// TradesPage is one response of the trades endpoint. An empty Cursor marks
// the final page.
type TradesPage struct {
	Trades []model.Trade `json:"trades"`
	Cursor string        `json:"cursor,omitempty"`
}
