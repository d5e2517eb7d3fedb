package app

import (
	"log/slog"

	"kalshi-trades/internal/provider"
	"kalshi-trades/internal/slogx"
)

// SetupLogging installs the default logger for cfg's level and format.
func SetupLogging(cfg *Config) {
	slog.SetDefault(slogx.NewDefault(cfg.LogLevel, cfg.LogFormat))
}

func createKalshiProvider(cfg *Config) (*provider.KalshiProvider, error) {
	p, err := provider.NewKalshiProvider(cfg.KalshiOptions())
	if err != nil {
		return nil, err
	}
	opts := p.Options()
	slog.Debug("provider", "name", p.GetName(), "base_url", opts.BaseURL, "limit", opts.Limit,
		"max_attempts", opts.MaxAttempts, "retry_delay", opts.RetryDelay, "max_pages", opts.MaxPages,
		"bypass_proxy", opts.BypassProxy)
	return p, nil
}
