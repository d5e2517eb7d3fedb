//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"kalshi-trades/internal/app"
)

// InitializeRunner builds a Runner (store, provider, notifier) from cfg via Wire.
// Caller must call cleanup when done.
func InitializeRunner(cfg *app.Config) (*app.Runner, func(), error) {
	wire.Build(
		app.ProviderSet,
		wire.Struct(new(app.Runner), "Config", "DP", "Store", "Notifier"),
	)
	return nil, nil, nil
}
