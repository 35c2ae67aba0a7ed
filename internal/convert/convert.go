// Package convert turns raw strings into values of a member's declared type.
//
// A Registry resolves one Func per declared type. Resolution happens once,
// when a hydration plan is built, so unsupported types are reported before
// any value is read.
package convert

import (
	"database/sql"
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var ErrUnsupportedType = errors.New("no converter for type")

// Func converts a non-null raw value into a value assignable to the declared type.
type Func func(raw string) (reflect.Value, error)

// DefaultTimeLayouts are tried in order when parsing time.Time members.
var DefaultTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
	"01/02/2006 15:04:05",
	"01/02/2006",
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	scannerType         = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// Registry holds custom converters and parsing settings.
type Registry struct {
	custom   map[reflect.Type]Func
	layouts  []string
	location *time.Location
}

// Option configures a Registry.
type Option func(*Registry)

// WithLayouts replaces the time layouts tried for time.Time members.
func WithLayouts(layouts ...string) Option {
	return func(r *Registry) {
		if len(layouts) > 0 {
			r.layouts = append([]string(nil), layouts...)
		}
	}
}

// WithLocation sets the location used for layouts without a zone.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewRegistry returns a registry with the built-in converters.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		custom:   make(map[reflect.Type]Func),
		layouts:  DefaultTimeLayouts,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs fn for values of exactly type t. Custom converters take
// precedence over every built-in one.
func (r *Registry) Register(t reflect.Type, fn Func) {
	r.custom[t] = fn
}

// Layouts returns the time layouts in use.
func (r *Registry) Layouts() []string {
	return append([]string(nil), r.layouts...)
}

// For returns the converter for declared type t.
func (r *Registry) For(t reflect.Type) (Func, error) {
	if fn, ok := r.custom[t]; ok {
		return fn, nil
	}

	switch t {
	case timeType:
		return r.parseTime, nil
	case durationType:
		return parseDuration, nil
	}

	if t.Kind() != reflect.Pointer {
		ptr := reflect.PointerTo(t)
		if ptr.Implements(textUnmarshalerType) {
			return unmarshalText(t), nil
		}
		if ptr.Implements(scannerType) {
			return scan(t), nil
		}
	}

	switch t.Kind() {
	case reflect.String:
		return func(raw string) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			v.SetString(raw)
			return v, nil
		}, nil
	case reflect.Bool:
		return func(raw string) (reflect.Value, error) {
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetBool(b)
			return v, nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetInt(n)
			return v, nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetUint(n)
			return v, nil
		}, nil
	case reflect.Float32, reflect.Float64:
		return func(raw string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetFloat(f)
			return v, nil
		}, nil
	case reflect.Complex64, reflect.Complex128:
		return func(raw string) (reflect.Value, error) {
			c, err := strconv.ParseComplex(strings.TrimSpace(raw), t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetComplex(c)
			return v, nil
		}, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(raw string) (reflect.Value, error) {
				v := reflect.New(t).Elem()
				v.SetBytes([]byte(raw))
				return v, nil
			}, nil
		}
	case reflect.Pointer:
		elem, err := r.For(t.Elem())
		if err != nil {
			return nil, err
		}
		return func(raw string) (reflect.Value, error) {
			v, err := elem(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			p := reflect.New(t.Elem())
			p.Elem().Set(v)
			return p, nil
		}, nil
	}

	return nil, fmt.Errorf("%w %s", ErrUnsupportedType, t)
}

func (r *Registry) parseTime(raw string) (reflect.Value, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range r.layouts {
		if ts, err := time.ParseInLocation(layout, s, r.location); err == nil {
			return reflect.ValueOf(ts), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%q does not match any of the layouts %q", raw, r.layouts)
}

func parseDuration(raw string) (reflect.Value, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(d), nil
}

func unmarshalText(t reflect.Type) Func {
	return func(raw string) (reflect.Value, error) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}
}

func scan(t reflect.Type) Func {
	return func(raw string) (reflect.Value, error) {
		p := reflect.New(t)
		if err := p.Interface().(sql.Scanner).Scan(raw); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}
}
