package main

import (
	"github.com/urfave/cli/v3"

	"kalshi-trades/internal/app"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", Sources: cli.EnvVars("CONFIG_PATH")},
		&cli.StringFlag{Name: "start-date", Usage: "first date to download, `YYYY-MM-DD` (default: day after the latest saved file or 2025-08-15)", Sources: cli.EnvVars("KALSHI_START_DATE")},
		&cli.StringFlag{Name: "end-date", Usage: "last date to download, `YYYY-MM-DD` (default: yesterday in --timezone)", Sources: cli.EnvVars("KALSHI_END_DATE")},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory for per-day files (default: data/kalshi_trades)", Sources: cli.EnvVars("KALSHI_DATA_DIR")},
		&cli.IntFlag{Name: "limit", Usage: "trades per API page, at most 1000 (default: 500)", Sources: cli.EnvVars("KALSHI_LIMIT")},
		&cli.BoolFlag{Name: "overwrite", Usage: "re-download days that already have a file", Sources: cli.EnvVars("KALSHI_OVERWRITE")},
		&cli.DurationFlag{Name: "page-delay", Usage: "pause between page requests (default: 50ms)", Sources: cli.EnvVars("KALSHI_PAGE_DELAY")},
		&cli.IntFlag{Name: "workers", Aliases: []string{"max-workers"}, Usage: "days downloaded concurrently (default: 2)", Sources: cli.EnvVars("KALSHI_WORKERS")},
		&cli.BoolFlag{Name: "include-today", Usage: "also download the current, possibly partial, day", Sources: cli.EnvVars("KALSHI_INCLUDE_TODAY")},
		&cli.StringFlag{Name: "timezone", Usage: "IANA zone that decides today and yesterday (default: America/New_York)", Sources: cli.EnvVars("KALSHI_TIMEZONE")},
		&cli.StringFlag{Name: "save-format", Usage: "json or parquet (default: json)", Sources: cli.EnvVars("SAVE_FORMAT")},
		&cli.StringFlag{Name: "base-url", Usage: "trade API base URL", Sources: cli.EnvVars("KALSHI_BASE_URL")},
		&cli.DurationFlag{Name: "request-timeout", Usage: "per-request timeout (default: 30s)", Sources: cli.EnvVars("KALSHI_REQUEST_TIMEOUT")},
		&cli.DurationFlag{Name: "retry-delay", Usage: "base retry delay, multiplied by the attempt number (default: 10s)", Sources: cli.EnvVars("KALSHI_RETRY_DELAY")},
		&cli.IntFlag{Name: "max-attempts", Usage: "attempts per page before giving up (default: 8)", Sources: cli.EnvVars("KALSHI_MAX_ATTEMPTS")},
		&cli.IntFlag{Name: "max-pages-per-day", Usage: "page ceiling per day, 0 for none (default: 10000)", Sources: cli.EnvVars("KALSHI_MAX_PAGES_PER_DAY")},
		&cli.BoolFlag{Name: "bypass-proxy", Usage: "ignore HTTP(S)_PROXY for API calls (default: true)", Sources: cli.EnvVars("KALSHI_BYPASS_PROXY")},
		&cli.BoolFlag{Name: "insecure-skip-verify", Usage: "disable TLS certificate verification", Sources: cli.EnvVars("KALSHI_INSECURE_SKIP_VERIFY")},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (default: info)", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.StringFlag{Name: "log-format", Usage: "text or json (default: text)", Sources: cli.EnvVars("LOG_FORMAT")},
		&cli.BoolFlag{Name: "progress", Usage: "show a progress bar of finished days", Sources: cli.EnvVars("KALSHI_PROGRESS")},
		&cli.DurationFlag{Name: "heartbeat", Usage: "interval of progress log lines, 0 to disable (default: 30s)", Sources: cli.EnvVars("KALSHI_HEARTBEAT")},
		&cli.StringFlag{Name: "schedule", Usage: "cron spec; keeps running and downloads on every tick", Sources: cli.EnvVars("KALSHI_SCHEDULE")},
		&cli.StringFlag{Name: "lark-webhook", Usage: "Lark/Feishu bot webhook for run summaries", Sources: cli.EnvVars("LARK_WEBHOOK_URL")},
		&cli.StringFlag{Name: "aggregate-dir", Usage: "where aggregate writes its CSV files (default: --output-dir)", Sources: cli.EnvVars("KALSHI_AGGREGATE_DIR")},
	}
}

// loadConfig builds the config from defaults, the YAML file, then every
// flag or env var that was set, and installs the logger.
func loadConfig(cmd *cli.Command) (*app.Config, error) {
	cfg, err := app.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	strs := map[string]*string{
		"start-date":    &cfg.StartDate,
		"end-date":      &cfg.EndDate,
		"output-dir":    &cfg.OutputDir,
		"timezone":      &cfg.Timezone,
		"save-format":   &cfg.SaveFormat,
		"base-url":      &cfg.BaseURL,
		"log-level":     &cfg.LogLevel,
		"log-format":    &cfg.LogFormat,
		"schedule":      &cfg.Schedule,
		"lark-webhook":  &cfg.LarkWebhook,
		"aggregate-dir": &cfg.AggregateDir,
	}
	for name, dst := range strs {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	ints := map[string]*int{
		"limit":             &cfg.Limit,
		"workers":           &cfg.Workers,
		"max-attempts":      &cfg.MaxAttempts,
		"max-pages-per-day": &cfg.MaxPagesPerDay,
	}
	for name, dst := range ints {
		if cmd.IsSet(name) {
			*dst = int(cmd.Int(name))
		}
	}
	bools := map[string]*bool{
		"overwrite":            &cfg.Overwrite,
		"include-today":        &cfg.IncludeToday,
		"bypass-proxy":         &cfg.BypassProxy,
		"insecure-skip-verify": &cfg.InsecureSkipVerify,
		"progress":             &cfg.Progress,
	}
	for name, dst := range bools {
		if cmd.IsSet(name) {
			*dst = cmd.Bool(name)
		}
	}
	if cmd.IsSet("page-delay") {
		cfg.PageDelay = cmd.Duration("page-delay")
	}
	if cmd.IsSet("request-timeout") {
		cfg.RequestTimeout = cmd.Duration("request-timeout")
	}
	if cmd.IsSet("retry-delay") {
		cfg.RetryDelay = cmd.Duration("retry-delay")
	}
	if cmd.IsSet("heartbeat") {
		cfg.Heartbeat = cmd.Duration("heartbeat")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app.SetupLogging(cfg)
	return cfg, nil
}
