package provider

import (
	"kalshi-trades/internal/provider/kalshi"
)

// KalshiProvider is a DataProvider backed by the public Kalshi trades API.
// It embeds *kalshi.Crawler to expose FetchDay and FetchPage directly.
type KalshiProvider struct {
	*kalshi.Crawler
}

var _ DataProvider = (*KalshiProvider)(nil)

// NewKalshiProvider creates a new Kalshi-backed DataProvider.
func NewKalshiProvider(opts kalshi.Options) (*KalshiProvider, error) {
	crawler, err := kalshi.NewCrawler(opts)
	if err != nil {
		return nil, err
	}
	return &KalshiProvider{Crawler: crawler}, nil
}

// GetName returns provider name
func (p *KalshiProvider) GetName() string {
	return "Kalshi"
}
