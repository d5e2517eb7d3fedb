package provider

import (
	"context"
	"time"

	"kalshi-trades/internal/model"
)

// DataProvider is the abstraction the day scheduler fetches through.
// Implementations must be safe for concurrent FetchDay calls on distinct days.
type DataProvider interface {
	GetName() string
	// FetchDay returns every trade of day's UTC window, or an error; never a
	// partial day.
	FetchDay(ctx context.Context, day time.Time) (*model.DayTrades, error)
	Close() error
}
