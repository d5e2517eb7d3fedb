package app

import (
	"log/slog"

	"github.com/google/wire"

	"kalshi-trades/internal/notify"
	"kalshi-trades/internal/provider"
	"kalshi-trades/internal/saver"
)

// ProviderSet is everything a download run needs, built from *Config.
var ProviderSet = wire.NewSet(
	ProvideDaySaver,
	ProvideDayStore,
	ProvideKalshiProvider,
	ProvideNotifier,
	wire.Bind(new(provider.DataProvider), new(*provider.KalshiProvider)),
)

// ProvideDaySaver creates the DaySaver for cfg.SaveFormat (for Wire).
func ProvideDaySaver(cfg *Config) (saver.DaySaver, error) {
	return cfg.DaySaver()
}

// ProvideDayStore creates the output directory store (for Wire).
func ProvideDayStore(cfg *Config, ds saver.DaySaver) *saver.DayStore {
	return saver.NewDayStore(cfg.OutputDir, ds)
}

// ProvideKalshiProvider creates the trades provider (for Wire). The cleanup
// closes its HTTP connections.
func ProvideKalshiProvider(cfg *Config) (*provider.KalshiProvider, func(), error) {
	p, err := createKalshiProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := p.Close(); err != nil {
			slog.Warn("close provider", "error", err)
		}
	}
	return p, cleanup, nil
}

// ProvideNotifier returns the Lark notifier, or a no-op one without a webhook.
func ProvideNotifier(cfg *Config) notify.Notifier {
	return notify.New(cfg.LarkWebhook, cfg.RequestTimeout)
}
