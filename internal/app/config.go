package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"kalshi-trades/internal/crawl"
	"kalshi-trades/internal/errs"
	"kalshi-trades/internal/model"
	"kalshi-trades/internal/provider/kalshi"
	"kalshi-trades/internal/saver"
)

// Config holds application configuration. Values come from defaults, then
// the YAML file, then environment variables and flags (applied by the CLI).
type Config struct {
	StartDate    string `yaml:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `yaml:"end_date" validate:"omitempty,datetime=2006-01-02"`
	OutputDir    string `yaml:"output_dir" validate:"required"`
	Overwrite    bool   `yaml:"overwrite"`
	IncludeToday bool   `yaml:"include_today"`
	Timezone     string `yaml:"timezone" validate:"required"`
	SaveFormat   string `yaml:"save_format" validate:"oneof=json parquet"`
	Workers      int    `yaml:"workers" validate:"min=1,max=64"`

	BaseURL            string        `yaml:"base_url" validate:"required,url"`
	Limit              int           `yaml:"limit" validate:"min=1,max=1000"`
	PageDelay          time.Duration `yaml:"page_delay" validate:"min=0s"`
	RequestTimeout     time.Duration `yaml:"request_timeout" validate:"gt=0s"`
	RetryDelay         time.Duration `yaml:"retry_delay" validate:"min=0s"`
	MaxAttempts        int           `yaml:"max_attempts" validate:"min=1,max=100"`
	MaxPagesPerDay     int           `yaml:"max_pages_per_day" validate:"min=0"` // 0 = unlimited
	BypassProxy        bool          `yaml:"bypass_proxy"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`

	LogLevel  string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string        `yaml:"log_format" validate:"oneof=text json"`
	Progress  bool          `yaml:"progress"`
	Heartbeat time.Duration `yaml:"heartbeat" validate:"min=0s"`

	// Schedule is a cron spec; empty runs once and exits.
	Schedule     string `yaml:"schedule"`
	LarkWebhook  string `yaml:"lark_webhook" validate:"omitempty,url"`
	AggregateDir string `yaml:"aggregate_dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:      "data/kalshi_trades",
		Timezone:       "America/New_York",
		SaveFormat:     "json",
		Workers:        crawl.DefaultWorkers,
		BaseURL:        kalshi.DefaultBaseURL,
		Limit:          kalshi.DefaultLimit,
		PageDelay:      kalshi.DefaultPageDelay,
		RequestTimeout: kalshi.DefaultRequestTimeout,
		RetryDelay:     kalshi.DefaultRetryDelay,
		MaxAttempts:    kalshi.DefaultMaxAttempts,
		MaxPagesPerDay: kalshi.DefaultMaxPages,
		BypassProxy:    true,
		LogLevel:       "info",
		LogFormat:      "text",
		Heartbeat:      30 * time.Second,
	}
}

// LoadConfig returns the defaults overlaid with the YAML file at path. An
// empty path skips the file; a named file that does not exist is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(errs.CodeInvalidParameter, err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrapf(errs.CodeInvalidParameter, err, "parse config %s", path)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and that dates and time zone parse.
func (c *Config) Validate() error {
	c.SaveFormat = strings.ToLower(strings.TrimSpace(c.SaveFormat))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
			}
			return errs.New(errs.CodeInvalidParameter, strings.Join(msgs, "; "))
		}
		return errs.Wrap(errs.CodeInvalidParameter, "validate config", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errs.Wrapf(errs.CodeInvalidParameter, err, "time zone %q", c.Timezone)
	}
	return loc, nil
}

// KalshiOptions maps the config onto the trades client options.
func (c *Config) KalshiOptions() kalshi.Options {
	maxPages := c.MaxPagesPerDay
	if maxPages == 0 {
		maxPages = -1
	}
	return kalshi.Options{
		BaseURL:            c.BaseURL,
		Limit:              c.Limit,
		RequestTimeout:     c.RequestTimeout,
		RetryDelay:         c.RetryDelay,
		MaxAttempts:        c.MaxAttempts,
		PageDelay:          c.PageDelay,
		MaxPages:           maxPages,
		BypassProxy:        c.BypassProxy,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// PlanOptions maps the config onto the range planner inputs.
func (c *Config) PlanOptions() (crawl.PlanOptions, error) {
	loc, err := c.Location()
	if err != nil {
		return crawl.PlanOptions{}, err
	}
	start, err := parseOptionalDay(c.StartDate)
	if err != nil {
		return crawl.PlanOptions{}, err
	}
	end, err := parseOptionalDay(c.EndDate)
	if err != nil {
		return crawl.PlanOptions{}, err
	}
	def, err := model.ParseDay(crawl.DefaultStartDate)
	if err != nil {
		return crawl.PlanOptions{}, err
	}
	return crawl.PlanOptions{
		Start:        start,
		End:          end,
		Location:     loc,
		IncludeToday: c.IncludeToday,
		Overwrite:    c.Overwrite,
		DefaultStart: def,
	}, nil
}

// CrawlOptions maps the config onto one scheduler run.
func (c *Config) CrawlOptions() (crawl.Options, error) {
	po, err := c.PlanOptions()
	if err != nil {
		return crawl.Options{}, err
	}
	return crawl.Options{
		Plan:      po,
		Workers:   c.Workers,
		Heartbeat: c.Heartbeat,
		Progress:  c.Progress,
	}, nil
}

// AggregateOutputDir is where the aggregate command writes its CSV files.
func (c *Config) AggregateOutputDir() string {
	if c.AggregateDir != "" {
		return c.AggregateDir
	}
	return c.OutputDir
}

// DaySaver returns the saver for the configured format.
func (c *Config) DaySaver() (saver.DaySaver, error) {
	ds := saver.NewDaySaver(c.SaveFormat)
	if ds == nil {
		return nil, errs.Newf(errs.CodeInvalidParameter, "unsupported save_format %q (use: %s)", c.SaveFormat, strings.Join(saver.Formats(), ", "))
	}
	return ds, nil
}

func parseOptionalDay(s string) (optional.Option[time.Time], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return optional.None[time.Time](), nil
	}
	d, err := model.ParseDay(s)
	if err != nil {
		return optional.None[time.Time](), errs.Wrap(errs.CodeInvalidParameter, "date", err)
	}
	return optional.Some(d), nil
}
