package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"kalshi-trades/internal/app"
	"kalshi-trades/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info", "text"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().Run(ctx, os.Args)
	stop()
	if err != nil {
		slog.Error("exit", "code", app.ExitCode(err), "error", err)
	}
	os.Exit(app.ExitCode(err))
}

func newRootCommand() *cli.Command {
	download := &cli.Command{
		Name:   "download",
		Usage:  "download every missing day of Kalshi trades into per-day files",
		Action: downloadAction,
	}
	return &cli.Command{
		Name:  "kalshi-trades",
		Usage: "Kalshi daily trade downloader",
		Flags: configFlags(),
		Commands: []*cli.Command{
			download,
			{
				Name:   "aggregate",
				Usage:  "sum downloaded trades into aggregated_daily.csv and aggregated_category.csv",
				Action: aggregateAction,
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, cleanup, err := InitializeRunner(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("using data provider", "provider", runner.DP.GetName())
	return runner.RunFlow(ctx)
}

func aggregateAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return app.RunAggregate(cfg)
}
