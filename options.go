package hydrx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/hengadev/hydrx/internal/convert"
	"github.com/hengadev/hydrx/internal/tags"
)

// Option configures an Engine at construction time.
type Option func(s *settings) error

type settings struct {
	tagName    string
	layouts    []string
	location   *time.Location
	converters []customConverter
	properties []propertySpec
	include    []string
	exclude    []string
	policy     BatchPolicy
	workers    int
	hooks      []ObservabilityHook
}

type customConverter struct {
	typ reflect.Type
	fn  convert.Func
}

func defaultSettings() *settings {
	return &settings{
		tagName: tags.DefaultTagName,
		policy:  FailFast,
		workers: 1,
	}
}

func (s *settings) registry() *convert.Registry {
	r := convert.NewRegistry(convert.WithLayouts(s.layouts...), convert.WithLocation(s.location))
	for _, c := range s.converters {
		r.Register(c.typ, c.fn)
	}
	return r
}

// WithTagName sets the struct tag that carries key overrides. Default: "hydrate".
func WithTagName(name string) Option {
	return func(s *settings) error {
		if name == "" || strings.ContainsAny(name, " \t\":`") {
			return fmt.Errorf("tag name %q is not a valid struct tag key", name)
		}
		s.tagName = name
		return nil
	}
}

// WithTimeLayouts replaces the layouts tried, in order, for time.Time members.
func WithTimeLayouts(layouts ...string) Option {
	return func(s *settings) error {
		if len(layouts) == 0 {
			return errors.New("at least one time layout is required")
		}
		s.layouts = append([]string(nil), layouts...)
		return nil
	}
}

// WithLocation sets the location for time layouts that carry no zone. Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) error {
		if loc == nil {
			return errors.New("location cannot be nil")
		}
		s.location = loc
		return nil
	}
}

// WithConverter installs a parser for members of type V. It takes
// precedence over the built-in conversions, also for *V members.
func WithConverter[V any](fn func(raw string) (V, error)) Option {
	return func(s *settings) error {
		if fn == nil {
			return fmt.Errorf("converter for %s cannot be nil", reflect.TypeFor[V]())
		}
		s.converters = append(s.converters, customConverter{
			typ: reflect.TypeFor[V](),
			fn: func(raw string) (reflect.Value, error) {
				v, err := fn(raw)
				if err != nil {
					return reflect.Value{}, err
				}
				return reflect.ValueOf(&v).Elem(), nil
			},
		})
		return nil
	}
}

// WithInclude restricts the engine to members whose key is listed. The full
// plan is still built and validated; Plan, Keys and every call then see only
// the narrowed members, and per-call filters narrow further.
func WithInclude(keys ...string) Option {
	return func(s *settings) error {
		if len(keys) == 0 {
			return errors.New("include needs at least one key")
		}
		s.include = append(s.include, keys...)
		return nil
	}
}

// WithExclude removes members whose key is listed from the engine, after
// WithInclude is applied.
func WithExclude(keys ...string) Option {
	return func(s *settings) error {
		s.exclude = append(s.exclude, keys...)
		return nil
	}
}

// WithBatchPolicy sets how batch hydration reacts to a failing row. Default: FailFast.
func WithBatchPolicy(policy BatchPolicy) Option {
	return func(s *settings) error {
		if policy != FailFast && policy != ContinueOnError {
			return fmt.Errorf("unknown batch policy %d", policy)
		}
		s.policy = policy
		return nil
	}
}

// WithWorkers bounds how many rows a batch hydrates concurrently. Default: 1.
// Output order always follows input order.
func WithWorkers(n int) Option {
	return func(s *settings) error {
		if n < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", n)
		}
		s.workers = n
		return nil
	}
}

// WithHook adds an observability hook. Several hooks are called in order.
func WithHook(hook ObservabilityHook) Option {
	return func(s *settings) error {
		if hook == nil {
			return errors.New("hook cannot be nil")
		}
		s.hooks = append(s.hooks, hook)
		return nil
	}
}

// WithLogger logs hydration events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithHook(NewLoggingObservabilityHook(logger))
}

// WithMetrics records hydration metrics into collector.
func WithMetrics(collector MetricsCollector) Option {
	return WithHook(NewMetricsObservabilityHook(collector))
}

// CallOption narrows or annotates one hydration call.
type CallOption func(c *callSettings)

type callSettings struct {
	ctx     context.Context
	include []string
	exclude []string
}

func newCallSettings(opts []CallOption) *callSettings {
	c := &callSettings{ctx: context.Background()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Include restricts the call to members whose key is listed. Unknown keys are ignored.
func Include(keys ...string) CallOption {
	return func(c *callSettings) {
		c.include = append(c.include, keys...)
	}
}

// Exclude removes members whose key is listed. Combined with Include, the
// include list is applied first and excluded keys are then removed from it.
func Exclude(keys ...string) CallOption {
	return func(c *callSettings) {
		c.exclude = append(c.exclude, keys...)
	}
}

// WithContext passes ctx to hooks and stops batches once ctx is done.
func WithContext(ctx context.Context) CallOption {
	return func(c *callSettings) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}
