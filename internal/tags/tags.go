// Package tags resolves the lookup key of a struct field from its struct tag.
package tags

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// DefaultTagName is the struct tag consulted when no other name is configured.
const DefaultTagName = "hydrate"

// Ignore is the tag value that removes a field from the hydration plan.
const Ignore = "-"

var (
	ErrEmptyKey   = errors.New("key override is empty")
	ErrInvalidKey = errors.New("key override contains a reserved character")
)

// Spec is the resolved tag information for one field.
type Spec struct {
	Key      string
	Explicit bool
	Ignore   bool
}

// Resolve returns the lookup key for field. An explicit override is returned
// verbatim; otherwise the key is the field's declared name.
func Resolve(field reflect.StructField, tagName string) (Spec, error) {
	if tagName == "" {
		tagName = DefaultTagName
	}
	value, ok := field.Tag.Lookup(tagName)
	return resolve(field.Name, value, ok)
}

// Extract resolves a key from a raw struct tag literal, as found in source
// code (with or without the surrounding backquotes).
func Extract(fieldName, rawTag, tagName string) (Spec, error) {
	if tagName == "" {
		tagName = DefaultTagName
	}
	tag := reflect.StructTag(strings.Trim(rawTag, "`"))
	value, ok := tag.Lookup(tagName)
	return resolve(fieldName, value, ok)
}

func resolve(fieldName, value string, present bool) (Spec, error) {
	if !present {
		return Spec{Key: fieldName}, nil
	}
	if value == Ignore {
		return Spec{Ignore: true}, nil
	}
	if err := Validate(value); err != nil {
		return Spec{}, fmt.Errorf("field '%s': %w", fieldName, err)
	}
	return Spec{Key: value, Explicit: true}, nil
}

// Validate reports whether key can be used as an override.
func Validate(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for _, r := range key {
		if r == ',' || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q in %q", ErrInvalidKey, r, key)
		}
	}
	return nil
}
