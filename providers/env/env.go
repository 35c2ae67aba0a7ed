// Package env answers hydration lookups from environment variables and
// dotenv files.
package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hengadev/hydrx"
)

// Source resolves keys to variable names and reads them. Variables from
// the process win over those read from dotenv files.
type Source struct {
	prefix     string
	upper      bool
	emptyNull  bool
	files      map[string]string
	lookupProc func(string) (string, bool)
}

// Option configures a Source.
type Option func(*Source)

// WithPrefix prepends prefix to every key, e.g. "APP_" turns "Port" into "APP_Port".
func WithPrefix(prefix string) Option {
	return func(s *Source) { s.prefix = prefix }
}

// UpperCase upper-cases variable names after applying the prefix.
func UpperCase() Option {
	return func(s *Source) { s.upper = true }
}

// EmptyAsNull treats variables set to the empty string as unset.
func EmptyAsNull() Option {
	return func(s *Source) { s.emptyNull = true }
}

// WithoutProcessEnv reads dotenv files only.
func WithoutProcessEnv() Option {
	return func(s *Source) {
		s.lookupProc = func(string) (string, bool) { return "", false }
	}
}

// New reads the given dotenv files without touching the process
// environment. Later files override earlier ones.
func New(files []string, opts ...Option) (*Source, error) {
	s := &Source{
		files:      map[string]string{},
		lookupProc: os.LookupEnv,
	}
	for _, f := range files {
		values, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range values {
			s.files[k] = v
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the variable consulted for key.
func (s *Source) Name(key string) string {
	name := s.prefix + key
	if s.upper {
		name = strings.ToUpper(name)
	}
	return name
}

// Lookup answers key; unset variables are nulls.
func (s *Source) Lookup(key string) hydrx.Result {
	name := s.Name(key)
	v, ok := s.lookupProc(name)
	if !ok {
		v, ok = s.files[name]
	}
	if !ok || (s.emptyNull && v == "") {
		return hydrx.Null()
	}
	return hydrx.Value(v)
}

// Hydrate builds a T from the source.
func Hydrate[T any](e *hydrx.Engine[T], s *Source, opts ...hydrx.CallOption) (*T, error) {
	return e.Hydrate(s.Lookup, opts...)
}
