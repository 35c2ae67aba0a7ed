// Package yaml answers hydration lookups from YAML documents. A document is
// either a mapping (one record) or a sequence of mappings (many records).
// Scalars are taken verbatim; null scalars are nulls.
package yamldoc

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hengadev/hydrx"
)

var (
	ErrNotMapping    = errors.New("yaml node is not a mapping")
	ErrNotScalar     = errors.New("yaml value is not a scalar")
	ErrEmptyDocument = errors.New("yaml document is empty")
)

// Record is one YAML mapping of scalar values.
type Record struct {
	keys   []string
	values map[string]*yaml.Node
	// Line is the line of the mapping in its document.
	Line int
}

// Lookup answers key; missing keys and null scalars are nulls. Values that
// are not scalars also answer a null; see Strict to reject them instead.
func (r Record) Lookup(key string) hydrx.Result {
	n, ok := r.values[key]
	if !ok || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return hydrx.Null()
	}
	return hydrx.Value(n.Value)
}

// Lookup is the row lookup for records, usable with hydrx.HydrateMany.
func Lookup(r Record, key string) hydrx.Result {
	return r.Lookup(key)
}

// Keys returns the mapping keys in document order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Strict reports the first key whose value is not a scalar.
func (r Record) Strict() error {
	for _, k := range r.keys {
		n := r.values[k]
		if n.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: key '%s' at line %d", ErrNotScalar, k, n.Line)
		}
	}
	return nil
}

// Decode parses one document into records.
func Decode(r io.Reader) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		rec, err := record(root)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	case yaml.SequenceNode:
		out := make([]Record, 0, len(root.Content))
		for i, item := range root.Content {
			rec, err := record(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w at line %d", ErrNotMapping, root.Line)
	}
}

func record(n *yaml.Node) (Record, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return Record{}, fmt.Errorf("%w at line %d", ErrNotMapping, n.Line)
	}
	rec := Record{values: make(map[string]*yaml.Node, len(n.Content)/2), Line: n.Line}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i].Value, n.Content[i+1]
		if v.Kind == yaml.AliasNode && v.Alias != nil {
			v = v.Alias
		}
		if _, dup := rec.values[k]; !dup {
			rec.keys = append(rec.keys, k)
		}
		rec.values[k] = v
	}
	return rec, nil
}

// Hydrate decodes r and builds one T per record.
func Hydrate[T any](e *hydrx.Engine[T], r io.Reader, opts ...hydrx.CallOption) ([]*T, error) {
	records, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return hydrx.HydrateMany(e, records, Lookup, opts...)
}
