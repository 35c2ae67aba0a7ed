package hydrx

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hengadev/errsx"

	"github.com/hengadev/hydrx/internal/monitoring"
)

// Config holds engine settings that can come from a file or the environment.
//
// This struct contains only data. Validate applies defaults, and Options
// turns it into engine options:
//
//	cfg, err := hydrx.LoadConfigFile("hydrx.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	meals, err := hydrx.NewFromConfig[Meal](cfg)
type Config struct {
	// TagName is the struct tag that carries key overrides. Default: hydrate
	TagName string `yaml:"tag_name"`

	// TimeLayouts are tried in order for time.Time members.
	// Empty means the built-in layouts (RFC3339 first).
	TimeLayouts []string `yaml:"time_layouts,omitempty"`

	// Location is the IANA location for zone-less times. Default: UTC
	Location string `yaml:"location"`

	// BatchPolicy is fail_fast or continue. Default: fail_fast
	BatchPolicy string `yaml:"batch_policy"`

	// Workers bounds concurrent row hydration. Default: 1
	Workers int `yaml:"workers"`

	// LogLevel and LogFormat configure the logging hook. An empty LogLevel
	// disables logging.
	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	return Config{
		TagName:     DefaultTagName,
		Location:    DefaultLocation,
		BatchPolicy: FailFast.String(),
		Workers:     DefaultWorkers,
	}
}

// Validate applies defaults to empty fields and checks the rest. All
// problems are reported together in an errsx.Map keyed by field.
func (c *Config) Validate() error {
	if c.TagName == "" {
		c.TagName = DefaultTagName
	}
	if c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.BatchPolicy == "" {
		c.BatchPolicy = FailFast.String()
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}

	errs := errsx.Map{}
	if strings.ContainsAny(c.TagName, " \t\":`") {
		errs.Set("tag_name", fmt.Errorf("%w: %q is not a valid struct tag key", ErrInvalidConfiguration, c.TagName))
	}
	for i, layout := range c.TimeLayouts {
		if strings.TrimSpace(layout) == "" {
			errs.Set(fmt.Sprintf("time_layouts[%d]", i), fmt.Errorf("%w: empty layout", ErrInvalidConfiguration))
		}
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		errs.Set("location", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err))
	}
	if _, err := ParseBatchPolicy(c.BatchPolicy); err != nil {
		errs.Set("batch_policy", err)
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		errs.Set("workers", fmt.Errorf("%w: workers must be between 1 and %d, got %d", ErrInvalidConfiguration, MaxWorkers, c.Workers))
	}
	if c.LogLevel != "" {
		if _, err := monitoring.ParseLevel(c.LogLevel); err != nil {
			errs.Set("log_level", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err))
		}
	}
	if _, err := monitoring.ParseFormat(c.LogFormat); err != nil {
		errs.Set("log_format", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err))
	}
	return errs.AsError()
}

// Options validates the configuration and converts it to engine options.
// Logs go to logOutput when LogLevel is set; nil means stderr.
func (c Config) Options(logOutput io.Writer) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	loc, _ := time.LoadLocation(c.Location)
	policy, _ := ParseBatchPolicy(c.BatchPolicy)

	opts := []Option{
		WithTagName(c.TagName),
		WithLocation(loc),
		WithBatchPolicy(policy),
		WithWorkers(c.Workers),
	}
	if len(c.TimeLayouts) > 0 {
		opts = append(opts, WithTimeLayouts(c.TimeLayouts...))
	}
	if c.LogLevel != "" {
		level, _ := monitoring.ParseLevel(c.LogLevel)
		format, _ := monitoring.ParseFormat(c.LogFormat)
		opts = append(opts, WithLogger(monitoring.NewLogger(monitoring.LoggerConfig{
			Level:  level,
			Format: format,
			Output: logOutput,
		})))
	}
	return opts, nil
}

// NewFromConfig builds an engine for T from cfg; opts are applied after the
// configured ones.
func NewFromConfig[T any](cfg Config, opts ...Option) (*Engine[T], error) {
	configured, err := cfg.Options(nil)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return New[T](append(configured, opts...)...)
}
